package verification

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ClearGateLLC/kidpass/faceapi"
	"github.com/ClearGateLLC/kidpass/matching"
	"github.com/ClearGateLLC/kidpass/shared"
	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrEmptyImage        = errors.New("image cannot be empty")
	ErrLedgerContention  = errors.New("pickup ledger write failed after retry")
	ErrNoUsableEmbedding = errors.New("request carries neither image nor embedding")
)

// Result tags of a verification attempt. NoFaceDetected is decided before
// the engine runs, the other four are the engine's terminal outcomes.
const (
	ResultNoFaceDetected    = "no_face_detected"
	ResultNotRegistered     = "not_registered"
	ResultRegistered        = "registered"
	ResultAlreadyRegistered = "already_registered"
	ResultPickedByOther     = "picked_by_other"
)

// ChildSummary is the per-child rule evaluation shown at the terminal.
type ChildSummary struct {
	Child        store.Child
	AllowedToday bool
	Days         []string
}

// Outcome is the terminal result of one verification attempt. Guardian and
// Children are set for all results but not_registered and no_face_detected;
// OtherGuardian, ConflictingChild and PickupTime only for picked_by_other.
type Outcome struct {
	Result           string
	Guardian         store.Guardian
	Children         []ChildSummary
	Score            float64
	OtherGuardian    store.Guardian
	ConflictingChild store.Child
	PickupTime       time.Time
}

type Service interface {
	VerifyImage(ctx context.Context, imageBase64 string, now time.Time) (Outcome, error)
	Authorize(ctx context.Context, probe store.Embedding, now time.Time) (Outcome, error)
}

type VerificationService struct {
	Store interface {
		Tx() *gorm.DB
		ListEnrolledGuardians(tx *gorm.DB) ([]store.Guardian, error)
		GetGuardian(tx *gorm.DB, guardianId string) (store.Guardian, error)
		ListChildrenOfGuardian(tx *gorm.DB, guardianId string) ([]store.Child, error)
		GetActivePickupRule(tx *gorm.DB, childId, guardianId string) (store.PickupRule, error)
		LatestPickupOfChildOnDay(tx *gorm.DB, childId string, t time.Time) (store.PickupRecord, error)
		AddPickupRecord(tx *gorm.DB, record store.PickupRecord) (store.PickupRecord, error)
	} `inject:""`
	FaceApi faceapi.Client    `inject:""`
	Matcher *matching.Matcher `inject:""`
	Logger  *shared.Logger    `inject:""`

	childLocks keyedLocks
}

// VerifyImage runs the pre-engine gate: the frame goes to the embedding
// service and is checked for exactly one sharp, large-enough, confident
// face. Anything short of that is a no_face_detected outcome, never a hard
// failure; a pickup line must keep moving when a frame is bad or the
// embedding service is down.
func (s *VerificationService) VerifyImage(ctx context.Context, imageBase64 string, now time.Time) (Outcome, error) {
	if imageBase64 == "" {
		return Outcome{}, ErrEmptyImage
	}

	analysis, err := s.FaceApi.Analyze(ctx, imageBase64)
	if err != nil {
		s.Logger.Warn(ctx, "face analysis failed", "error", err.Error())
		return Outcome{Result: ResultNoFaceDetected}, nil
	}
	if !faceapi.PassesQualityGate(analysis) {
		return Outcome{Result: ResultNoFaceDetected}, nil
	}

	return s.Authorize(ctx, store.Embedding(analysis.Embedding), now)
}

// Authorize resolves the probe to a guardian, evaluates today's pickup rule
// for each linked child and records newly-permitted pickups. It stops at the
// first child already picked up today, by the same guardian or another one:
// a duplicate-pickup attempt needs eyes on it before anything else is
// released. Summaries collected before the stop are still returned so the
// terminal can show full context.
func (s *VerificationService) Authorize(ctx context.Context, probe store.Embedding, now time.Time) (Outcome, error) {
	if len(probe) == 0 {
		return Outcome{}, ErrNoUsableEmbedding
	}

	candidates, err := s.Store.ListEnrolledGuardians(nil)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to list enrolled guardians")
	}

	guardian, rawScore, ok := s.Matcher.Identify(ctx, probe, candidates)
	score := roundScore(rawScore)
	if !ok || rawScore < matching.Threshold {
		return Outcome{Result: ResultNotRegistered, Score: score}, nil
	}

	children, err := s.Store.ListChildrenOfGuardian(nil, guardian.GuardianId)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to list children of guardian")
	}

	today := WeekdayTag(now)
	summaries := []ChildSummary{}

	for _, child := range children {
		allowed, days, err := s.allowedToday(child.ChildId, guardian.GuardianId, today)
		if err != nil {
			return Outcome{}, err
		}
		summaries = append(summaries, ChildSummary{Child: child, AllowedToday: allowed, Days: days})

		if !allowed {
			continue
		}

		existing, recorded, err := s.recordPickup(ctx, child, guardian, now)
		if err != nil {
			return Outcome{}, err
		}
		if recorded {
			continue
		}

		if existing.GuardianId == guardian.GuardianId {
			return Outcome{
				Result:   ResultAlreadyRegistered,
				Guardian: guardian,
				Children: summaries,
				Score:    score,
			}, nil
		}

		other, err := s.Store.GetGuardian(nil, existing.GuardianId)
		if err != nil && errors.Cause(err) != store.ErrGuardianNotFound {
			return Outcome{}, errors.Wrap(err, "failed to load picking guardian")
		}
		return Outcome{
			Result:           ResultPickedByOther,
			Guardian:         guardian,
			Children:         summaries,
			Score:            score,
			OtherGuardian:    other,
			ConflictingChild: child,
			PickupTime:       existing.PickupTime,
		}, nil
	}

	return Outcome{
		Result:   ResultRegistered,
		Guardian: guardian,
		Children: summaries,
		Score:    score,
	}, nil
}

// allowedToday applies the default-allow policy: no active rule for the pair
// means unrestricted access, a rule restricts to exactly its weekday set.
func (s *VerificationService) allowedToday(childId, guardianId, today string) (bool, []string, error) {
	rule, err := s.Store.GetActivePickupRule(nil, childId, guardianId)
	if err != nil {
		if errors.Cause(err) == store.ErrPickupRuleNotFound {
			return true, []string{}, nil
		}
		return false, nil, errors.Wrap(err, "failed to load pickup rule")
	}
	return rule.Days.Contains(today), []string(rule.Days), nil
}

// recordPickup runs the read-then-insert against the ledger inside a
// transaction, serialized per child so two terminals cannot both observe
// "no record yet" and both insert. Returns recorded=true when a new record
// was written; otherwise existing holds today's authoritative record. An
// aborted transaction is retried once before surfacing ErrLedgerContention.
func (s *VerificationService) recordPickup(ctx context.Context, child store.Child, guardian store.Guardian, now time.Time) (existing store.PickupRecord, recorded bool, err error) {
	unlock := s.childLocks.lock(child.ChildId)
	defer unlock()

	for attempt := 0; attempt < 2; attempt++ {
		existing, recorded, err = s.tryRecordPickup(child, guardian, now)
		if err == nil {
			return existing, recorded, nil
		}
		s.Logger.Warn(ctx, "pickup ledger write aborted", "childId", child.ChildId, "attempt", attempt, "error", err.Error())
	}

	return store.PickupRecord{}, false, ErrLedgerContention
}

func (s *VerificationService) tryRecordPickup(child store.Child, guardian store.Guardian, now time.Time) (store.PickupRecord, bool, error) {
	// Tx may be nil when the store is not transactional (unit suites);
	// the store treats a nil tx as its base handle.
	tx := s.Store.Tx()
	if tx != nil && tx.Error != nil {
		return store.PickupRecord{}, false, tx.Error
	}

	existing, err := s.Store.LatestPickupOfChildOnDay(tx, child.ChildId, now)
	if err == nil {
		rollback(tx)
		return existing, false, nil
	}
	if errors.Cause(err) != store.ErrNoPickupRecord {
		rollback(tx)
		return store.PickupRecord{}, false, err
	}

	_, err = s.Store.AddPickupRecord(tx, store.PickupRecord{
		ChildId:          child.ChildId,
		GuardianId:       guardian.GuardianId,
		PickupTime:       now,
		RelationshipType: guardian.RelationshipType,
	})
	if err != nil {
		rollback(tx)
		return store.PickupRecord{}, false, err
	}
	if err := commit(tx); err != nil {
		return store.PickupRecord{}, false, err
	}

	return store.PickupRecord{}, true, nil
}

func rollback(tx *gorm.DB) {
	if tx != nil {
		tx.Rollback()
	}
}

func commit(tx *gorm.DB) error {
	if tx == nil {
		return nil
	}
	return tx.Commit().Error
}

func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

// keyedLocks hands out one mutex per child id.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ServiceMiddleware is a chainable behavior modifier for VerificationService.
type ServiceMiddleware func(VerificationService) VerificationService
