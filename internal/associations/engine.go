// internal/associations/engine.go
package associations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"nutrition-log/internal/logger"
	"nutrition-log/internal/metrics"
	"nutrition-log/internal/models"
)

const (
	DefaultRecommendationLimit = 5
	DefaultCombinationLimit    = 10

	// MinRecommendationConfidence is exclusive.
	MinRecommendationConfidence = 0.1
	// HighConfidence is exclusive.
	HighConfidence = 0.5
	// MinPopularCoOccurrence is inclusive.
	MinPopularCoOccurrence = 2
)

// Engine mines diary history for foods eaten together in the same meal and
// answers recommendation queries from the resulting pair records.
//
// Updates of one meal type are serialized; different meal types proceed in
// parallel. Queries take no lock.
type Engine struct {
	store   Store
	log     *logger.Logger
	metrics *metrics.Metrics
	locks   map[models.MealType]*sync.Mutex
}

type Option func(*Engine)

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l.With("component", "associations") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   logger.Nop(),
		locks: make(map[models.MealType]*sync.Mutex, len(models.AllMealTypes)),
	}
	for _, mt := range models.AllMealTypes {
		e.locks[mt] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpdateResult describes what one UpdateForMeal call changed.
type UpdateResult struct {
	Date     string          `json:"date"`
	MealType models.MealType `json:"meal_type"`
	Foods    int             `json:"foods"`
	Pairs    int             `json:"pairs"`
	Records  int             `json:"records"`
	Skipped  bool            `json:"skipped"`
}

// RebuildResult describes one wholesale rebuild of a meal type.
type RebuildResult struct {
	MealType models.MealType `json:"meal_type"`
	Deleted  int64           `json:"deleted"`
	Dates    int             `json:"dates"`
	Records  int             `json:"records"`
}

// UpdateForMeal folds the meal logged on date into the pair records of
// mealType: every pair of distinct foods in the meal gets one co-occurrence,
// the occurrence totals of those foods are recounted from the diary, and the
// scores of every record of the meal type are recomputed.
//
// The call is not idempotent. Calling it twice for an unchanged meal counts
// the meal's pairs twice.
func (e *Engine) UpdateForMeal(ctx context.Context, date string, mealType models.MealType) (*UpdateResult, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%q: %w", mealType, models.ErrInvalidMealType)
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}

	start := time.Now()
	mu := e.locks[mealType]
	mu.Lock()
	defer mu.Unlock()

	res := &UpdateResult{Date: date, MealType: mealType}
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		foods, pairs, totals, err := applyMeal(ctx, tx, date, mealType)
		if err != nil {
			return err
		}
		res.Foods = len(foods)
		if len(foods) < 2 {
			res.Skipped = true
			return nil
		}
		res.Pairs = pairs
		res.Records, err = recompute(ctx, tx, mealType, totals)
		return err
	})

	e.metrics.ObserveAssociationUpdate(string(mealType), updateOutcome(res, err), res.Pairs, time.Since(start))
	if err != nil {
		e.log.Error("association update failed", "meal_type", mealType, "date", date, "error", err)
		return nil, fmt.Errorf("failed to update associations for %s %s: %w", date, mealType, err)
	}

	e.log.Debug("associations updated",
		"meal_type", mealType,
		"date", date,
		"foods", res.Foods,
		"pairs", res.Pairs,
		"records", res.Records,
		"skipped", res.Skipped,
	)
	return res, nil
}

// Rebuild discards every record of mealType and replays the whole diary
// history of that meal type, oldest date first, in one transaction.
func (e *Engine) Rebuild(ctx context.Context, mealType models.MealType) (*RebuildResult, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%q: %w", mealType, models.ErrInvalidMealType)
	}

	mu := e.locks[mealType]
	mu.Lock()
	defer mu.Unlock()

	res := &RebuildResult{MealType: mealType}
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		if res.Deleted, err = tx.DeleteAssociationsByMealType(ctx, mealType); err != nil {
			return err
		}
		dates, err := tx.MealDates(ctx, mealType)
		if err != nil {
			return err
		}
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, _, _, err := applyMeal(ctx, tx, date, mealType); err != nil {
				return err
			}
		}
		res.Dates = len(dates)
		res.Records, err = recompute(ctx, tx, mealType, nil)
		return err
	})

	e.metrics.ObserveRebuild(string(mealType), err)
	if err != nil {
		e.log.Error("association rebuild failed", "meal_type", mealType, "error", err)
		return nil, fmt.Errorf("failed to rebuild associations for %s: %w", mealType, err)
	}

	e.log.Info("associations rebuilt",
		"meal_type", mealType,
		"deleted", res.Deleted,
		"dates", res.Dates,
		"records", res.Records,
	)
	return res, nil
}

// RebuildAll rebuilds every meal type concurrently. Results are in
// models.AllMealTypes order.
func (e *Engine) RebuildAll(ctx context.Context) ([]*RebuildResult, error) {
	results := make([]*RebuildResult, len(models.AllMealTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, mt := range models.AllMealTypes {
		i, mt := i, mt
		g.Go(func() error {
			res, err := e.Rebuild(gctx, mt)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetRecommendations returns the foods most often eaten with foodID in
// mealType. Confidence is P(partner | foodID); pairs at or below
// MinRecommendationConfidence are dropped. A food with no history yields an
// empty slice.
func (e *Engine) GetRecommendations(ctx context.Context, foodID int64, mealType models.MealType, limit int) ([]models.Recommendation, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%q: %w", mealType, models.ErrInvalidMealType)
	}
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	records, err := e.store.FindAssociations(ctx, mealType, foodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find associations for food %d: %w", foodID, err)
	}

	recs := make([]models.Recommendation, 0, len(records))
	for _, a := range records {
		confidence := a.ConfidenceFrom(foodID)
		if confidence <= MinRecommendationConfidence {
			continue
		}
		recs = append(recs, models.Recommendation{
			FoodID:            a.Partner(foodID),
			AntecedentFoodID:  foodID,
			Confidence:        confidence,
			Support:           a.Support,
			CoOccurrenceCount: a.CoOccurrenceCount,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].FoodID < recs[j].FoodID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// GetPopularCombinations returns the pairs of mealType eaten together at
// least MinPopularCoOccurrence times, most frequent first.
func (e *Engine) GetPopularCombinations(ctx context.Context, mealType models.MealType, limit int) ([]models.PopularCombination, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%q: %w", mealType, models.ErrInvalidMealType)
	}
	if limit <= 0 {
		limit = DefaultCombinationLimit
	}

	records, err := e.store.FindAssociationsByMealType(ctx, mealType)
	if err != nil {
		return nil, fmt.Errorf("failed to find associations for %s: %w", mealType, err)
	}

	combos := popular(records)
	if len(combos) > limit {
		combos = combos[:limit]
	}
	return combos, nil
}

func (e *Engine) GetMealInsights(ctx context.Context, mealType models.MealType) (*models.MealInsights, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%q: %w", mealType, models.ErrInvalidMealType)
	}

	records, err := e.store.FindAssociationsByMealType(ctx, mealType)
	if err != nil {
		return nil, fmt.Errorf("failed to find associations for %s: %w", mealType, err)
	}

	insights := &models.MealInsights{MealType: mealType, TotalAssociations: len(records)}
	for _, a := range records {
		if a.Confidence > HighConfidence {
			insights.HighConfidencePairs++
		}
	}
	if combos := popular(records); len(combos) > 0 {
		top := combos[0]
		insights.MostPopularCombination = &top
	}
	return insights, nil
}

// applyMeal increments the co-occurrence of every distinct pair in one meal
// and stamps each pair with the recounted totals of its two foods. It returns
// the meal's distinct foods, the number of pairs incremented and the totals.
func applyMeal(ctx context.Context, tx Tx, date string, mealType models.MealType) ([]int64, int, map[int64]int, error) {
	ids, err := tx.MealFoodIDs(ctx, date, mealType)
	if err != nil {
		return nil, 0, nil, err
	}
	foods := distinct(ids)
	if len(foods) < 2 {
		return foods, 0, nil, nil
	}

	totals := make(map[int64]int, len(foods))
	for _, id := range foods {
		if totals[id], err = tx.CountFoodMeals(ctx, id, mealType); err != nil {
			return nil, 0, nil, err
		}
	}

	pairs := 0
	for i := 0; i < len(foods); i++ {
		for j := i + 1; j < len(foods); j++ {
			a, err := tx.GetOrCreateAssociation(ctx, mealType, foods[i], foods[j])
			if err != nil {
				return nil, 0, nil, err
			}
			a.CoOccurrenceCount++
			a.SetTotal(a.FoodLowID, totals[a.FoodLowID])
			a.SetTotal(a.FoodHighID, totals[a.FoodHighID])
			if err := tx.SaveAssociation(ctx, a); err != nil {
				return nil, 0, nil, err
			}
			pairs++
		}
	}
	return foods, pairs, totals, nil
}

// recompute applies totals to every record holding one of its foods, then
// rescores every record of mealType against the meal type's distinct dates.
func recompute(ctx context.Context, tx Tx, mealType models.MealType, totals map[int64]int) (int, error) {
	meals, err := tx.DistinctMealDates(ctx, mealType)
	if err != nil {
		return 0, err
	}
	records, err := tx.FindAssociationsByMealType(ctx, mealType)
	if err != nil {
		return 0, err
	}
	for _, a := range records {
		if total, ok := totals[a.FoodLowID]; ok {
			a.SetTotal(a.FoodLowID, total)
		}
		if total, ok := totals[a.FoodHighID]; ok {
			a.SetTotal(a.FoodHighID, total)
		}
		a.UpdateMetrics(meals)
		if err := tx.SaveAssociation(ctx, a); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func popular(records []*models.FoodPairAssociation) []models.PopularCombination {
	var combos []models.PopularCombination
	for _, a := range records {
		if a.CoOccurrenceCount < MinPopularCoOccurrence {
			continue
		}
		combos = append(combos, models.PopularCombination{
			Food1ID:           a.FoodLowID,
			Food2ID:           a.FoodHighID,
			CoOccurrenceCount: a.CoOccurrenceCount,
			Confidence:        a.Confidence,
			ReverseConfidence: a.ReverseConfidence,
			Support:           a.Support,
		})
	}
	sort.Slice(combos, func(i, j int) bool {
		ci, cj := combos[i], combos[j]
		if ci.CoOccurrenceCount != cj.CoOccurrenceCount {
			return ci.CoOccurrenceCount > cj.CoOccurrenceCount
		}
		if ci.Confidence != cj.Confidence {
			return ci.Confidence > cj.Confidence
		}
		if ci.Food1ID != cj.Food1ID {
			return ci.Food1ID < cj.Food1ID
		}
		return ci.Food2ID < cj.Food2ID
	})
	return combos
}

// distinct drops repeated ids and sorts the rest ascending.
func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func updateOutcome(res *UpdateResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Skipped:
		return "skipped"
	default:
		return "updated"
	}
}
