// Package memory implements the repository interfaces over process memory
// for unit tests. It has no transactions; DBTX and pgx.Tx arguments are ignored.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/repository"
	"github.com/jackc/pgx/v5"
)

type betKey struct {
	user string
	kind domain.GameKind
}

type statKey struct {
	guild string
	user  string
	kind  domain.GameKind
}

// Store is the shared state behind every memory repository.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	bets     map[betKey]int64
	stats    map[statKey]*domain.GuildStat
	bonuses  map[string]time.Time
	rounds   map[uuid.UUID]domain.Settlement
	outbox   []domain.OutboxDraft
	seq      int64
	fail     map[string]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		bets:     make(map[betKey]int64),
		stats:    make(map[statKey]*domain.GuildStat),
		bonuses:  make(map[string]time.Time),
		rounds:   make(map[uuid.UUID]domain.Settlement),
		fail:     make(map[string]error),
	}
}

// FailOn makes the named operation (for example "stats.increment") return
// err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *Store) check(op string) error {
	return s.fail[op]
}

// Events returns a copy of the outbox.
func (s *Store) Events() []domain.OutboxDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxDraft(nil), s.outbox...)
}

// RoundCount returns the number of recorded rounds.
func (s *Store) RoundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rounds)
}

func (s *Store) Accounts() repository.AccountRepository { return &accountRepo{s} }
func (s *Store) Bets() repository.BetRepository { return &betRepo{s} }
func (s *Store) Stats() repository.StatRepository { return &statRepo{s} }
func (s *Store) Bonuses() repository.BonusRepository { return &bonusRepo{s} }
func (s *Store) Rounds() repository.RoundRepository { return &roundRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository { return &outboxRepo{s} }

type accountRepo struct{ s *Store }

func (r *accountRepo) Find(_ context.Context, _ repository.DBTX, userID string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("accounts.find"); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *accountRepo) Ensure(_ context.Context, _ repository.DBTX, userID string, starting int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("accounts.ensure"); err != nil {
		return err
	}
	if _, ok := r.s.accounts[userID]; !ok {
		now := time.Now()
		r.s.accounts[userID] = &domain.Account{UserID: userID, Balance: starting, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

func (r *accountRepo) LockForUpdate(ctx context.Context, _ pgx.Tx, userID string) (*domain.Account, error) {
	return r.Find(ctx, nil, userID)
}

func (r *accountRepo) AddBalance(_ context.Context, _ pgx.Tx, userID string, delta int64) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("accounts.add"); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound("account", userID)
	}
	a.Balance += delta
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *accountRepo) SetBalance(_ context.Context, _ repository.DBTX, userID string, balance int64) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("accounts.set"); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[userID]
	if !ok {
		a = &domain.Account{UserID: userID, CreatedAt: time.Now()}
		r.s.accounts[userID] = a
	}
	a.Balance = balance
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *accountRepo) TopByGuild(_ context.Context, _ repository.DBTX, guildID string, limit int) ([]domain.BalanceEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := make(map[string]bool)
	for k := range r.s.stats {
		if k.guild == guildID {
			members[k.user] = true
		}
	}
	var out []domain.BalanceEntry
	for id := range members {
		if a, ok := r.s.accounts[id]; ok {
			out = append(out, domain.BalanceEntry{UserID: id, Balance: a.Balance})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type betRepo struct{ s *Store }

func (r *betRepo) Get(_ context.Context, _ repository.DBTX, userID string, kind domain.GameKind) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("bets.get"); err != nil {
		return 0, false, err
	}
	amt, ok := r.s.bets[betKey{userID, kind}]
	return amt, ok, nil
}

func (r *betRepo) Set(_ context.Context, _ repository.DBTX, userID string, kind domain.GameKind, amount int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("bets.set"); err != nil {
		return 0, err
	}
	amount = domain.ClampBet(amount)
	r.s.bets[betKey{userID, kind}] = amount
	return amount, nil
}

type statRepo struct{ s *Store }

func (r *statRepo) Increment(_ context.Context, _ repository.DBTX, d domain.StatDelta) (*domain.GuildStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("stats.increment"); err != nil {
		return nil, err
	}
	k := statKey{d.GuildID, d.UserID, d.Kind}
	st, ok := r.s.stats[k]
	if !ok {
		st = &domain.GuildStat{GuildID: d.GuildID, UserID: d.UserID, Kind: d.Kind}
		r.s.stats[k] = st
	}
	w, l, p := d.Counters()
	st.Wins += w
	st.Losses += l
	st.Pushes += p
	st.Net += d.Net
	cp := *st
	return &cp, nil
}

func (r *statRepo) Find(_ context.Context, _ repository.DBTX, guildID, userID string, kind domain.GameKind) (*domain.GuildStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stats[statKey{guildID, userID, kind}]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *statRepo) ListGuild(_ context.Context, _ repository.DBTX, guildID string) ([]domain.GuildStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.GuildStat
	for k, st := range r.s.stats {
		if k.guild == guildID {
			out = append(out, *st)
		}
	}
	sortStats(out)
	return out, nil
}

func (r *statRepo) Lines(_ context.Context, _ repository.DBTX, guildID string, scope domain.StatScope) ([]domain.StatLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("stats.lines"); err != nil {
		return nil, err
	}
	byUser := make(map[string]*domain.StatLine)
	var order []string
	for k, st := range r.s.stats {
		if k.guild != guildID || (!scope.All && k.kind != scope.Kind) {
			continue
		}
		l, ok := byUser[k.user]
		if !ok {
			l = &domain.StatLine{UserID: k.user}
			byUser[k.user] = l
			order = append(order, k.user)
		}
		l.Wins += st.Wins
		l.Losses += st.Losses
		l.Pushes += st.Pushes
		l.Net += st.Net
	}
	sort.Strings(order)
	out := make([]domain.StatLine, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	return out, nil
}

type bonusRepo struct{ s *Store }

func (r *bonusRepo) LastClaim(_ context.Context, _ repository.DBTX, userID string) (time.Time, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	at, ok := r.s.bonuses[userID]
	return at, ok, nil
}

func (r *bonusRepo) Record(_ context.Context, _ repository.DBTX, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("bonuses.record"); err != nil {
		return err
	}
	r.s.bonuses[userID] = at
	return nil
}

type roundRepo struct{ s *Store }

func (r *roundRepo) Insert(_ context.Context, _ repository.DBTX, st domain.Settlement, _ time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("rounds.insert"); err != nil {
		return false, err
	}
	if _, dup := r.s.rounds[st.RoundID]; dup {
		return false, nil
	}
	r.s.rounds[st.RoundID] = st
	return true, nil
}

func (r *roundRepo) Totals(_ context.Context, _ repository.DBTX, guildID string) ([]domain.GuildStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	agg := make(map[statKey]*domain.GuildStat)
	for _, st := range r.s.rounds {
		if st.GuildID != guildID {
			continue
		}
		k := statKey{st.GuildID, st.UserID, st.Kind}
		g, ok := agg[k]
		if !ok {
			g = &domain.GuildStat{GuildID: st.GuildID, UserID: st.UserID, Kind: st.Kind}
			agg[k] = g
		}
		w, l, p := st.StatDelta().Counters()
		g.Wins += w
		g.Losses += l
		g.Pushes += p
		g.Net += st.Net()
	}
	out := make([]domain.GuildStat, 0, len(agg))
	for _, g := range agg {
		out = append(out, *g)
	}
	sortStats(out)
	return out, nil
}

func (r *roundRepo) Exists(_ context.Context, _ repository.DBTX, roundID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.rounds[roundID]
	return ok, nil
}

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Insert(_ context.Context, _ repository.DBTX, draft domain.OutboxDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("outbox.insert"); err != nil {
		return err
	}
	r.s.seq++
	draft.SeqID = r.s.seq
	r.s.outbox = append(r.s.outbox, draft)
	return nil
}

func (r *outboxRepo) FetchUnpublished(_ context.Context, _ repository.DBTX, limit int) ([]domain.OutboxDraft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := min(limit, len(r.s.outbox))
	return append([]domain.OutboxDraft(nil), r.s.outbox[:n]...), nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, _ repository.DBTX, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.s.outbox[:0]
	for _, d := range r.s.outbox {
		if !drop[d.SeqID] {
			kept = append(kept, d)
		}
	}
	r.s.outbox = kept
	return nil
}

func sortStats(stats []domain.GuildStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].UserID != stats[j].UserID {
			return stats[i].UserID < stats[j].UserID
		}
		return stats[i].Kind < stats[j].Kind
	})
}
