package services

import (
	"database/sql/driver"
	"reflect"
	"regexp"
	"testing"

	"submission-review-api/models"
)

func TestPlanAssignmentMergeAddsUpToCap(t *testing.T) {
	plan, err := planAssignment([]int{7}, []int{7, 9}, AssignModeMerge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(plan.toAdd, []int{9}) {
		t.Fatalf("expected toAdd [9], got %v", plan.toAdd)
	}
	if len(plan.toRevoke) != 0 {
		t.Fatalf("merge must not revoke, got %v", plan.toRevoke)
	}
	if !reflect.DeepEqual(plan.active, []int{7, 9}) {
		t.Fatalf("expected active [7 9], got %v", plan.active)
	}
}

func TestPlanAssignmentMergeRejectsOverCap(t *testing.T) {
	_, err := planAssignment([]int{7, 9}, []int{11}, AssignModeMerge)
	if err == nil {
		t.Fatalf("expected error when merge exceeds the evaluator cap")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestPlanAssignmentMergeIsIdempotent(t *testing.T) {
	plan, err := planAssignment([]int{7, 9}, []int{7, 9}, AssignModeMerge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.toAdd) != 0 || len(plan.toRevoke) != 0 {
		t.Fatalf("re-assigning the active set must be a no-op, got add=%v revoke=%v", plan.toAdd, plan.toRevoke)
	}
}

func TestPlanAssignmentEmptyModeMeansMerge(t *testing.T) {
	plan, err := planAssignment(nil, []int{7}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(plan.toAdd, []int{7}) {
		t.Fatalf("expected toAdd [7], got %v", plan.toAdd)
	}
}

func TestPlanAssignmentReplaceSwapsSet(t *testing.T) {
	plan, err := planAssignment([]int{7, 9}, []int{9, 11}, AssignModeReplace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(plan.toRevoke, []int{7}) {
		t.Fatalf("expected toRevoke [7], got %v", plan.toRevoke)
	}
	if !reflect.DeepEqual(plan.toAdd, []int{11}) {
		t.Fatalf("expected toAdd [11], got %v", plan.toAdd)
	}
	if !reflect.DeepEqual(plan.active, []int{9, 11}) {
		t.Fatalf("expected active [9 11], got %v", plan.active)
	}
}

// assignQuorumSteps scripts an Assign call that adds evaluator 9 next to
// the already active evaluator 7 on a submitted submission, up to and
// including the quorum status update. The update result is parameterized so
// the transition gating can be exercised both ways.
func assignQuorumSteps(statusUpdate driver.Result) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`submissions`" + `.* FOR UPDATE`),
			args:    []driver.Value{int64(1)},
			columns: []string{"submission_id", "call_id", "user_id", "title", "status"},
			rows:    [][]driver.Value{{int64(1), int64(5), int64(2), "Work", models.StatusSubmitted}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`evaluator_assignments`" + `.* FOR UPDATE`),
			args:    []driver.Value{int64(1)},
			columns: []string{"assignment_id", "submission_id", "evaluator_id"},
			rows:    [][]driver.Value{{int64(1), int64(1), int64(7)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`users`"),
			args:    []driver.Value{int64(9)},
			columns: []string{"user_id", "role_id"},
			rows:    [][]driver.Value{{int64(9), int64(2)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`evaluator_assignments`"),
			args:    []driver.Value{int64(1), int64(9)},
			columns: []string{"assignment_id", "submission_id", "evaluator_id"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO ` + "`evaluator_assignments`"),
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT count\(\*\) FROM ` + "`evaluator_assignments`"),
			args:    []driver.Value{int64(1)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(2)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`UPDATE ` + "`submissions`" + ` SET ` + "`status`"),
			// args nil: GORM auto-binds the updated_at timestamp, which
			// cannot be matched exactly; the driver skips arg checks.
			args:    nil,
			result:  statusUpdate,
		},
	}
}

func TestAssignLocksRowsAndTransitionsOnQuorum(t *testing.T) {
	steps := append(assignQuorumSteps(scriptedResult{rowsAffected: 1}),
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO ` + "`submission_status_history`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		// quorum notification: row insert, then author lookup (no address)
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO ` + "`notifications`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM ` + "`users`"),
			args:    []driver.Value{int64(2)},
			columns: []string{"user_id", "user_fname", "user_lname", "email"},
			rows:    [][]driver.Value{},
		},
	)

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewAssignmentService(db, NewNotificationService(db))
	admin := &models.User{UserID: 3, RoleID: 3}

	activeCount, err := svc.Assign(1, []int{9}, AssignModeMerge, admin)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if activeCount != 2 {
		t.Fatalf("expected 2 active evaluators, got %d", activeCount)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAssignSkipsTransitionWhenStatusUpdateMisses(t *testing.T) {
	// The status update affecting no rows must leave no history row and
	// fire no notification.
	steps := assignQuorumSteps(scriptedResult{rowsAffected: 0})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewAssignmentService(db, NewNotificationService(db))
	admin := &models.User{UserID: 3, RoleID: 3}

	activeCount, err := svc.Assign(1, []int{9}, AssignModeMerge, admin)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if activeCount != 2 {
		t.Fatalf("expected 2 active evaluators, got %d", activeCount)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestPlanAssignmentRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		active   []int
		incoming []int
		mode     string
	}{
		{"empty incoming", []int{7}, nil, AssignModeMerge},
		{"more than cap", nil, []int{1, 2, 3}, AssignModeMerge},
		{"duplicate incoming", nil, []int{5, 5}, AssignModeMerge},
		{"unknown mode", nil, []int{5}, "swap"},
	}
	for _, tc := range cases {
		if _, err := planAssignment(tc.active, tc.incoming, tc.mode); err == nil {
			t.Errorf("%s: expected error", tc.name)
		} else if _, ok := err.(*ValidationError); !ok {
			t.Errorf("%s: expected ValidationError, got %T", tc.name, err)
		}
	}
}
