package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

// Postgres stores sessions as JSONB columns, one row per session.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *errors.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects and pings the database. It does not run migrations.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *errors.Logger) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid database url", err)
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, storageFailure("connect to database", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, storageFailure("ping database", err)
	}

	logger.Info("Connected to Postgres",
		"max_conns", pcfg.MaxConns,
		"host", pcfg.ConnConfig.Host,
		"database", pcfg.ConnConfig.Database)
	return &Postgres{pool: pool, logger: logger}, nil
}

const upsertSession = `
INSERT INTO optimization_sessions
    (id, user_id, keyword_analysis, score, gaps, summary, skills, experience)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    user_id          = COALESCE(EXCLUDED.user_id, optimization_sessions.user_id),
    keyword_analysis = COALESCE(EXCLUDED.keyword_analysis, optimization_sessions.keyword_analysis),
    score            = COALESCE(EXCLUDED.score, optimization_sessions.score),
    gaps             = COALESCE(EXCLUDED.gaps, optimization_sessions.gaps),
    summary          = COALESCE(EXCLUDED.summary, optimization_sessions.summary),
    skills           = COALESCE(EXCLUDED.skills, optimization_sessions.skills),
    experience       = COALESCE(EXCLUDED.experience, optimization_sessions.experience),
    updated_at       = NOW()`

// UpdateSession upserts the row, overwriting only the columns the update
// carries.
func (p *Postgres) UpdateSession(ctx context.Context, id uuid.UUID, update types.SessionUpdate) error {
	args := []any{id, update.UserID}
	for _, v := range []any{
		update.KeywordAnalysis, update.Score, update.Gaps,
		update.Summary, update.Skills, update.Experience,
	} {
		doc, err := jsonColumn(v)
		if err != nil {
			return storageFailure("encode session", err)
		}
		args = append(args, doc)
	}

	if _, err := p.pool.Exec(ctx, upsertSession, args...); err != nil {
		return storageFailure("update session", err).WithContext("session_id", id.String())
	}
	return nil
}

// jsonColumn encodes v for a JSONB parameter. A nil pointer becomes SQL NULL
// so COALESCE keeps the stored value.
func jsonColumn(v any) (any, error) {
	switch x := v.(type) {
	case *types.KeywordAnalysisResult:
		if x == nil {
			return nil, nil
		}
	case *types.ATSScore:
		if x == nil {
			return nil, nil
		}
	case *types.GapAnalysis:
		if x == nil {
			return nil, nil
		}
	case *types.SummarySuggestion:
		if x == nil {
			return nil, nil
		}
	case *types.SkillsSuggestion:
		if x == nil {
			return nil, nil
		}
	case *types.ExperienceSuggestion:
		if x == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

const selectSession = `
SELECT id, COALESCE(user_id, ''), keyword_analysis, score, gaps, summary, skills, experience,
       created_at, updated_at
FROM optimization_sessions
WHERE id = $1`

func (p *Postgres) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	var (
		s    types.Session
		docs [6][]byte
	)
	err := p.pool.QueryRow(ctx, selectSession, id).Scan(
		&s.ID, &s.UserID,
		&docs[0], &docs[1], &docs[2], &docs[3], &docs[4], &docs[5],
		&s.CreatedAt, &s.UpdatedAt,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageFailure("read session", err)
	}

	targets := []struct {
		name string
		dst  any
	}{
		{"keyword_analysis", &s.KeywordAnalysis},
		{"score", &s.Score},
		{"gaps", &s.Gaps},
		{"summary", &s.Summary},
		{"skills", &s.Skills},
		{"experience", &s.Experience},
	}
	for i, t := range targets {
		if docs[i] == nil {
			continue
		}
		if err := json.Unmarshal(docs[i], t.dst); err != nil {
			return nil, storageFailure(fmt.Sprintf("decode session %s", t.name), err)
		}
	}
	return &s, nil
}

func (p *Postgres) GetUserContext(ctx context.Context, userID string) (*types.UserContext, error) {
	var (
		goal       string
		industries []string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(career_goal, ''), target_industries FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&goal, &industries)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return &types.UserContext{}, nil
	}
	if err != nil {
		return nil, storageFailure("read user profile", err)
	}
	return &types.UserContext{CareerGoal: types.CareerGoal(goal), TargetIndustries: industries}, nil
}

// PutUserContext upserts a user profile.
func (p *Postgres) PutUserContext(ctx context.Context, userID string, uc types.UserContext) error {
	industries := uc.TargetIndustries
	if industries == nil {
		industries = []string{}
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, career_goal, target_industries)
		 VALUES ($1, NULLIF($2, ''), $3)
		 ON CONFLICT (user_id) DO UPDATE SET
		     career_goal = EXCLUDED.career_goal,
		     target_industries = EXCLUDED.target_industries,
		     updated_at = NOW()`,
		userID, string(uc.CareerGoal), industries,
	)
	if err != nil {
		return storageFailure("write user profile", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Stats reports pool usage for the stats endpoint.
func (p *Postgres) Stats() map[string]any {
	st := p.pool.Stat()
	return map[string]any{
		"backend":        "postgres",
		"total_conns":    st.TotalConns(),
		"idle_conns":     st.IdleConns(),
		"acquired_conns": st.AcquiredConns(),
		"max_conns":      st.MaxConns(),
	}
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
