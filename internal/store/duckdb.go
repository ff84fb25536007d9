// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package store persists Runs and their dependent rows (Projections,
// Clusters, Memberships, ClusterVotingPatterns, Lineage) to an embedded
// DuckDB database. It is the only package that writes Run state; the
// atomic-publication guarantee in the run coordinator's contract is
// implemented here as a single transaction per run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/memoriauy/burbujas/internal/models"
)

// Store wraps a DuckDB connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the DuckDB database at path. An empty path
// opens an in-memory database, used by tests.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id VARCHAR PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			status VARCHAR NOT NULL,
			error_message VARCHAR,
			window_days INTEGER, min_voters INTEGER, min_votes_per_voter INTEGER,
			neutral_epsilon DOUBLE, k_base INTEGER, k_group_min INTEGER, k_group_max INTEGER,
			n_voters INTEGER, n_items INTEGER, n_base_clusters INTEGER, n_groups INTEGER,
			silhouette DOUBLE, computation_ms BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS projections (
			run_id VARCHAR, voter_kind VARCHAR, voter_id VARCHAR,
			x DOUBLE, y DOUBLE, n_votes_cast INTEGER,
			PRIMARY KEY (run_id, voter_kind, voter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS clusters (
			run_id VARCHAR, cluster_type VARCHAR, local_id INTEGER,
			size INTEGER, centroid_x DOUBLE, centroid_y DOUBLE, consensus DOUBLE,
			parent_group INTEGER, name VARCHAR, description VARCHAR,
			PRIMARY KEY (run_id, cluster_type, local_id)
		)`,
		`CREATE TABLE IF NOT EXISTS memberships (
			run_id VARCHAR, cluster_type VARCHAR, cluster_local_id INTEGER,
			voter_kind VARCHAR, voter_id VARCHAR, distance_to_centroid DOUBLE,
			PRIMARY KEY (run_id, cluster_type, voter_kind, voter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cluster_voting_patterns (
			run_id VARCHAR, cluster_type VARCHAR, cluster_local_id INTEGER, item_id VARCHAR,
			count_pos INTEGER, count_neg INTEGER, count_neu INTEGER,
			consensus DOUBLE, majority VARCHAR,
			PRIMARY KEY (run_id, cluster_type, cluster_local_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS lineage (
			from_run_id VARCHAR, from_local_id INTEGER,
			to_run_id VARCHAR, to_local_id INTEGER,
			overlap_count INTEGER, pct_from DOUBLE, pct_to DOUBLE, kind VARCHAR,
			PRIMARY KEY (from_run_id, from_local_id, to_run_id, to_local_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bridge_affinities (
			run_id VARCHAR, voter_kind VARCHAR, voter_id VARCHAR,
			home_group INTEGER, group_local_id INTEGER,
			agree_count INTEGER, total_count INTEGER,
			PRIMARY KEY (run_id, voter_kind, voter_id, group_local_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// CreateRunning inserts a new Run row in the `running` state and returns
// its id.
func (s *Store) CreateRunning(ctx context.Context, params models.RunParameters) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, status, window_days, min_voters, min_votes_per_voter,
			neutral_epsilon, k_base, k_group_min, k_group_max)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), time.Now().UTC(), models.RunStatusRunning,
		params.WindowDays, params.MinVoters, params.MinVotesPerVoter,
		params.NeutralEpsilon, params.KBase, params.KGroupMin, params.KGroupMax,
	)
	return id, err
}

// CompletedRun bundles everything PersistCompleted writes atomically.
type CompletedRun struct {
	Run         models.Run
	Projections []models.Projection
	Clusters    []models.Cluster
	Memberships []models.Membership
	Patterns    []models.ClusterVotingPattern
	Bridges     []models.BridgeAffinity
}

// PersistCompleted writes every dependent row and flips the Run to
// completed inside one transaction. Readers never observe a completed Run
// whose dependent rows are missing.
func (s *Store) PersistCompleted(ctx context.Context, cr CompletedRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op if Commit succeeds

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET completed_at = ?, status = ?, n_voters = ?, n_items = ?,
			n_base_clusters = ?, n_groups = ?, silhouette = ?, computation_ms = ?
		 WHERE id = ?`,
		now, models.RunStatusCompleted, cr.Run.NVoters, cr.Run.NItems,
		cr.Run.NBaseClusters, cr.Run.NGroups, cr.Run.Silhouette, cr.Run.ComputationMS,
		cr.Run.ID.String(),
	); err != nil {
		return fmt.Errorf("updating run row: %w", err)
	}

	for _, p := range cr.Projections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projections (run_id, voter_kind, voter_id, x, y, n_votes_cast) VALUES (?,?,?,?,?,?)`,
			cr.Run.ID.String(), p.Voter.Kind, p.Voter.ID, p.X, p.Y, p.NVotesCast,
		); err != nil {
			return fmt.Errorf("inserting projection: %w", err)
		}
	}
	for _, c := range cr.Clusters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (run_id, cluster_type, local_id, size, centroid_x, centroid_y, consensus, parent_group)
			 VALUES (?,?,?,?,?,?,?,?)`,
			cr.Run.ID.String(), c.Type, c.LocalID, c.Size, c.CentroidX, c.CentroidY, c.Consensus, c.ParentGroup,
		); err != nil {
			return fmt.Errorf("inserting cluster: %w", err)
		}
	}
	for _, m := range cr.Memberships {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (run_id, cluster_type, cluster_local_id, voter_kind, voter_id, distance_to_centroid)
			 VALUES (?,?,?,?,?,?)`,
			cr.Run.ID.String(), m.Type, m.ClusterLocalID, m.Voter.Kind, m.Voter.ID, m.DistanceToCentroid,
		); err != nil {
			return fmt.Errorf("inserting membership: %w", err)
		}
	}
	for _, p := range cr.Patterns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cluster_voting_patterns
			 (run_id, cluster_type, cluster_local_id, item_id, count_pos, count_neg, count_neu, consensus, majority)
			 VALUES (?,?,?,?,?,?,?,?,?)`,
			cr.Run.ID.String(), p.ClusterType, p.ClusterLocalID, p.ItemID,
			p.CountPos, p.CountNeg, p.CountNeu, p.Consensus, p.Majority,
		); err != nil {
			return fmt.Errorf("inserting pattern: %w", err)
		}
	}

	for _, b := range cr.Bridges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bridge_affinities (run_id, voter_kind, voter_id, home_group, group_local_id, agree_count, total_count)
			 VALUES (?,?,?,?,?,?,?)`,
			cr.Run.ID.String(), b.Voter.Kind, b.Voter.ID, b.HomeGroup, b.GroupLocalID, b.AgreeCount, b.TotalCount,
		); err != nil {
			return fmt.Errorf("inserting bridge affinity: %w", err)
		}
	}

	return tx.Commit()
}

// MarkFailed transitions a Run to failed and deletes any dependent rows a
// partially-completed attempt may have written, per the coordinator's
// failure-rollback guarantee.
func (s *Store) MarkFailed(ctx context.Context, runID uuid.UUID, errMsg string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	id := runID.String()
	tables := []string{"projections", "clusters", "memberships", "cluster_voting_patterns", "bridge_affinities"}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", t), id); err != nil {
			return fmt.Errorf("cleaning up %s: %w", t, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		models.RunStatusFailed, errMsg, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("marking run failed: %w", err)
	}
	return tx.Commit()
}

// LatestCompleted returns the most recently completed Run, or (zero value,
// false, nil) if none exists.
func (s *Store) LatestCompleted(ctx context.Context) (models.Run, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, completed_at, status, n_voters, n_items, n_base_clusters, n_groups, silhouette, computation_ms
		 FROM runs WHERE status = ? ORDER BY created_at DESC LIMIT 1`, models.RunStatusCompleted)
	return scanRun(row)
}

// PreviousCompleted returns the most recent completed Run strictly before
// before, for the lineage computer's predecessor lookup.
func (s *Store) PreviousCompleted(ctx context.Context, before time.Time) (models.Run, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, completed_at, status, n_voters, n_items, n_base_clusters, n_groups, silhouette, computation_ms
		 FROM runs WHERE status = ? AND created_at < ? ORDER BY created_at DESC LIMIT 1`,
		models.RunStatusCompleted, before)
	return scanRun(row)
}

func scanRun(row *sql.Row) (models.Run, bool, error) {
	var r models.Run
	var idStr string
	var completedAt sql.NullTime
	err := row.Scan(&idStr, &r.CreatedAt, &completedAt, &r.Status,
		&r.NVoters, &r.NItems, &r.NBaseClusters, &r.NGroups, &r.Silhouette, &r.ComputationMS)
	if err == sql.ErrNoRows {
		return models.Run{}, false, nil
	}
	if err != nil {
		return models.Run{}, false, err
	}
	r.ID, err = uuid.Parse(idStr)
	if err != nil {
		return models.Run{}, false, err
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return r, true, nil
}

// GroupVoters returns, for every group cluster in runID, the set of member
// voter ids -- the lineage computer's required input shape.
func (s *Store) GroupVoters(ctx context.Context, runID uuid.UUID) (map[int][]models.VoterID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cluster_local_id, voter_kind, voter_id FROM memberships WHERE run_id = ? AND cluster_type = ?`,
		runID.String(), models.ClusterTypeGroup)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]models.VoterID)
	for rows.Next() {
		var localID int
		var kind, id string
		if err := rows.Scan(&localID, &kind, &id); err != nil {
			return nil, err
		}
		out[localID] = append(out[localID], models.VoterID{Kind: models.VoterKind(kind), ID: id})
	}
	return out, rows.Err()
}

// InsertLineage writes the lineage rows computed between two runs.
func (s *Store) InsertLineage(ctx context.Context, rows []models.Lineage) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, l := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lineage (from_run_id, from_local_id, to_run_id, to_local_id, overlap_count, pct_from, pct_to, kind)
			 VALUES (?,?,?,?,?,?,?,?)`,
			l.FromRunID.String(), l.FromLocalID, l.ToRunID.String(), l.ToLocalID,
			l.OverlapCount, l.PctFrom, l.PctTo, l.Kind,
		); err != nil {
			return fmt.Errorf("inserting lineage row: %w", err)
		}
	}
	return tx.Commit()
}

// ClusterPatterns returns patterns for a cluster ordered by descending
// consensus, per the Query API's "cluster patterns" contract.
func (s *Store) ClusterPatterns(ctx context.Context, runID uuid.UUID, clusterType models.ClusterType, localID int) ([]models.ClusterVotingPattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, count_pos, count_neg, count_neu, consensus, majority
		 FROM cluster_voting_patterns
		 WHERE run_id = ? AND cluster_type = ? AND cluster_local_id = ?
		 ORDER BY consensus DESC`,
		runID.String(), clusterType, localID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClusterVotingPattern
	for rows.Next() {
		p := models.ClusterVotingPattern{RunID: runID, ClusterType: clusterType, ClusterLocalID: localID}
		if err := rows.Scan(&p.ItemID, &p.CountPos, &p.CountNeg, &p.CountNeu, &p.Consensus, &p.Majority); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunProjections returns every voter's 2D coordinate for runID.
func (s *Store) RunProjections(ctx context.Context, runID uuid.UUID) ([]models.Projection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT voter_kind, voter_id, x, y, n_votes_cast FROM projections WHERE run_id = ?`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Projection
	for rows.Next() {
		p := models.Projection{RunID: runID}
		var kind string
		if err := rows.Scan(&kind, &p.Voter.ID, &p.X, &p.Y, &p.NVotesCast); err != nil {
			return nil, err
		}
		p.Voter.Kind = models.VoterKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunClusters returns every cluster of clusterType within runID.
func (s *Store) RunClusters(ctx context.Context, runID uuid.UUID, clusterType models.ClusterType) ([]models.Cluster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT local_id, size, centroid_x, centroid_y, consensus, parent_group, name, description
		 FROM clusters WHERE run_id = ? AND cluster_type = ? ORDER BY local_id`,
		runID.String(), clusterType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Cluster
	for rows.Next() {
		c := models.Cluster{RunID: runID, Type: clusterType}
		var parentGroup sql.NullInt64
		var name, description sql.NullString
		if err := rows.Scan(&c.LocalID, &c.Size, &c.CentroidX, &c.CentroidY, &c.Consensus, &parentGroup, &name, &description); err != nil {
			return nil, err
		}
		if parentGroup.Valid {
			v := int(parentGroup.Int64)
			c.ParentGroup = &v
		}
		if name.Valid {
			c.Name = &name.String
		}
		if description.Valid {
			c.Description = &description.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentCompleted returns up to limit of the most recently completed Runs,
// newest first, for the lineage window endpoint.
func (s *Store) RecentCompleted(ctx context.Context, limit int) ([]models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, completed_at, status, n_voters, n_items, n_base_clusters, n_groups, silhouette, computation_ms
		 FROM runs WHERE status = ? ORDER BY created_at DESC LIMIT ?`, models.RunStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		var r models.Run
		var idStr string
		var completedAt sql.NullTime
		if err := rows.Scan(&idStr, &r.CreatedAt, &completedAt, &r.Status,
			&r.NVoters, &r.NItems, &r.NBaseClusters, &r.NGroups, &r.Silhouette, &r.ComputationMS); err != nil {
			return nil, err
		}
		r.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			r.CompletedAt = &completedAt.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LineageBetween returns the lineage rows recorded between fromRunID and
// toRunID, for the lineage window endpoint to stitch together.
func (s *Store) LineageBetween(ctx context.Context, fromRunID, toRunID uuid.UUID) ([]models.Lineage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_local_id, to_local_id, overlap_count, pct_from, pct_to, kind
		 FROM lineage WHERE from_run_id = ? AND to_run_id = ?`, fromRunID.String(), toRunID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lineage
	for rows.Next() {
		l := models.Lineage{FromRunID: fromRunID, ToRunID: toRunID}
		if err := rows.Scan(&l.FromLocalID, &l.ToLocalID, &l.OverlapCount, &l.PctFrom, &l.PctTo, &l.Kind); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// VoterBridges returns every group-affinity row recorded for voter in
// runID, one per non-home group it clears the bridge-detection threshold
// against. Empty if the voter is not a bridge in that run.
func (s *Store) VoterBridges(ctx context.Context, runID uuid.UUID, voter models.VoterID) ([]models.BridgeAffinity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT home_group, group_local_id, agree_count, total_count FROM bridge_affinities
		 WHERE run_id = ? AND voter_kind = ? AND voter_id = ?`,
		runID.String(), voter.Kind, voter.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BridgeAffinity
	for rows.Next() {
		b := models.BridgeAffinity{RunID: runID, Voter: voter}
		if err := rows.Scan(&b.HomeGroup, &b.GroupLocalID, &b.AgreeCount, &b.TotalCount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// VoterBubble returns the group cluster local id a voter belongs to in
// runID, or (0, false) if the voter has no membership in that run.
func (s *Store) VoterBubble(ctx context.Context, runID uuid.UUID, voter models.VoterID) (int, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cluster_local_id FROM memberships
		 WHERE run_id = ? AND cluster_type = ? AND voter_kind = ? AND voter_id = ?`,
		runID.String(), models.ClusterTypeGroup, voter.Kind, voter.ID)
	var localID int
	if err := row.Scan(&localID); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return localID, true, nil
}
