package services

import (
	"database/sql/driver"
	"math"
	"regexp"
	"testing"

	"submission-review-api/models"
)

func writtenCriterion(id int, min, max, weight float64) models.CallCriterion {
	return models.CallCriterion{
		CriterionID: id,
		CallID:      5,
		Kind:        models.CriterionKindWritten,
		Title:       "Criterion",
		ScaleMin:    min,
		ScaleMax:    max,
		Weight:      weight,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeAggregateAveragesAcrossEvaluators(t *testing.T) {
	criteria := []models.CallCriterion{writtenCriterion(10, 1, 5, 1)}
	items := []models.ScoreItem{
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 10, Score: 5},
		{SubmissionID: 1, EvaluatorID: 9, CriterionID: 10, Score: 4},
	}

	result := computeAggregate(1, criteria, items)
	if result.EvaluatorCount != 2 {
		t.Fatalf("expected 2 evaluators, got %d", result.EvaluatorCount)
	}
	if !almostEqual(result.Total, 4.5) {
		t.Fatalf("expected total 4.5, got %g", result.Total)
	}
	if len(result.Subtotals) != 2 {
		t.Fatalf("expected 2 subtotals, got %d", len(result.Subtotals))
	}
	if result.Subtotals[0].EvaluatorID != 7 || !almostEqual(result.Subtotals[0].Subtotal, 5) {
		t.Fatalf("unexpected first subtotal: %+v", result.Subtotals[0])
	}
	if result.Subtotals[1].EvaluatorID != 9 || !almostEqual(result.Subtotals[1].Subtotal, 4) {
		t.Fatalf("unexpected second subtotal: %+v", result.Subtotals[1])
	}
}

func TestComputeAggregateRestatesPerCriterion(t *testing.T) {
	criteria := []models.CallCriterion{
		writtenCriterion(10, 1, 5, 1),
		writtenCriterion(11, 1, 5, 1),
	}
	items := []models.ScoreItem{
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 10, Score: 5},
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 11, Score: 4},
	}

	result := computeAggregate(1, criteria, items)
	if !almostEqual(result.Total, 4.5) {
		t.Fatalf("expected total 4.5, got %g", result.Total)
	}
}

func TestComputeAggregateIgnoresForeignCriteria(t *testing.T) {
	criteria := []models.CallCriterion{writtenCriterion(10, 1, 5, 1)}
	items := []models.ScoreItem{
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 10, Score: 3},
		// e.g. an oral score stored on the same submission
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 99, Score: 5},
	}

	result := computeAggregate(1, criteria, items)
	if !almostEqual(result.Total, 3) {
		t.Fatalf("expected total 3, got %g", result.Total)
	}
}

func TestComputeAggregateEmpty(t *testing.T) {
	result := computeAggregate(1, []models.CallCriterion{writtenCriterion(10, 1, 5, 1)}, nil)
	if result.EvaluatorCount != 0 || result.Total != 0 {
		t.Fatalf("expected zero aggregate, got %+v", result)
	}
}

func TestValidateScores(t *testing.T) {
	criteria := map[int]models.CallCriterion{
		10: writtenCriterion(10, 1, 5, 1),
	}

	if err := validateScores(criteria, []ScoreItemInput{{CriterionID: 10, Score: 5}}); err != nil {
		t.Fatalf("in-range score rejected: %v", err)
	}

	if err := validateScores(criteria, nil); err == nil {
		t.Fatalf("expected error for empty score set")
	}
	if err := validateScores(criteria, []ScoreItemInput{{CriterionID: 10, Score: 6}}); err == nil {
		t.Fatalf("expected error for score above scale_max")
	} else if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if err := validateScores(criteria, []ScoreItemInput{{CriterionID: 10, Score: 0.5}}); err == nil {
		t.Fatalf("expected error for score below scale_min")
	}
	if err := validateScores(criteria, []ScoreItemInput{{CriterionID: 99, Score: 3}}); err == nil {
		t.Fatalf("expected error for unknown criterion")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
	if err := validateScores(criteria, []ScoreItemInput{
		{CriterionID: 10, Score: 3},
		{CriterionID: 10, Score: 4},
	}); err == nil {
		t.Fatalf("expected error for duplicate criterion")
	}
}

func TestComputeWeightedCompositeNormalizesScales(t *testing.T) {
	criteria := []models.CallCriterion{
		writtenCriterion(10, 0, 5, 2),
		writtenCriterion(11, 0, 10, 1),
	}
	items := []models.ScoreItem{
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 10, Score: 5},
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 11, Score: 5},
	}

	result := computeWeightedComposite(1, criteria, items)
	if result.EvaluatorCount != 1 {
		t.Fatalf("expected 1 evaluator, got %d", result.EvaluatorCount)
	}
	// (1.0*2 + 0.5*1) / 3 * 10
	want := 2.5 / 3 * 10
	if !almostEqual(result.Composite, want) {
		t.Fatalf("expected composite %g, got %g", want, result.Composite)
	}
}

func TestComputeWeightedCompositeSkipsDegenerateScales(t *testing.T) {
	criteria := []models.CallCriterion{writtenCriterion(10, 5, 5, 1)}
	items := []models.ScoreItem{
		{SubmissionID: 1, EvaluatorID: 7, CriterionID: 10, Score: 5},
	}

	result := computeWeightedComposite(1, criteria, items)
	if result.EvaluatorCount != 0 || result.Composite != 0 {
		t.Fatalf("expected empty composite for a zero-width scale, got %+v", result)
	}
}

func TestAggregateReadsScoresFromStore(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`submissions`"),
			args:    []driver.Value{int64(1)},
			columns: []string{"submission_id", "call_id", "user_id", "status"},
			rows:    [][]driver.Value{{int64(1), int64(5), int64(2), models.StatusUnderReview}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`call_criteria`"),
			args:    []driver.Value{int64(5), models.CriterionKindWritten},
			columns: []string{"criterion_id", "call_id", "kind", "title", "scale_min", "scale_max", "weight"},
			rows: [][]driver.Value{{
				int64(10), int64(5), models.CriterionKindWritten, "Relevance", float64(1), float64(5), float64(1),
			}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`score_items`"),
			args:    []driver.Value{int64(1)},
			columns: []string{"score_id", "submission_id", "evaluator_id", "criterion_id", "score"},
			rows: [][]driver.Value{
				{int64(1), int64(1), int64(7), int64(10), float64(5)},
				{int64(2), int64(1), int64(9), int64(10), float64(4)},
			},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewScoringService(db)
	result, err := svc.Aggregate(1)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if result.EvaluatorCount != 2 {
		t.Fatalf("expected 2 evaluators, got %d", result.EvaluatorCount)
	}
	if !almostEqual(result.Total, 4.5) {
		t.Fatalf("expected total 4.5, got %g", result.Total)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRecordOverwritesExistingScore(t *testing.T) {
	submissionStep := func() *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`submissions`"),
			args:    []driver.Value{int64(1)},
			columns: []string{"submission_id", "call_id", "user_id", "status"},
			rows:    [][]driver.Value{{int64(1), int64(5), int64(2), models.StatusUnderReview}},
		}
	}
	criteriaStep := func() *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`call_criteria`"),
			args:    []driver.Value{int64(5), models.CriterionKindWritten},
			columns: []string{"criterion_id", "call_id", "kind", "title", "scale_min", "scale_max", "weight"},
			rows: [][]driver.Value{{
				int64(10), int64(5), models.CriterionKindWritten, "Relevance", float64(1), float64(5), float64(1),
			}},
		}
	}

	steps := []*queryStep{
		// first recording: no row for the pair yet, so one is inserted
		submissionStep(),
		criteriaStep(),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`score_items`"),
			args:    []driver.Value{int64(1), int64(7), int64(10)},
			columns: []string{"score_id", "submission_id", "evaluator_id", "criterion_id", "score"},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO ` + "`score_items`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		// second recording: the existing row is updated in place
		submissionStep(),
		criteriaStep(),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`score_items`"),
			args:    []driver.Value{int64(1), int64(7), int64(10)},
			columns: []string{"score_id", "submission_id", "evaluator_id", "criterion_id", "score"},
			rows:    [][]driver.Value{{int64(1), int64(1), int64(7), int64(10), float64(5)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`UPDATE ` + "`score_items`" + ` SET`),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewScoringService(db)
	admin := &models.User{UserID: 3, RoleID: 3}

	items := []ScoreItemInput{{CriterionID: 10, Score: 5}}
	if err := svc.Record(1, 7, models.CriterionKindWritten, items, admin); err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	items[0].Score = 3
	if err := svc.Record(1, 7, models.CriterionKindWritten, items, admin); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
