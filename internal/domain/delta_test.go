package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func makeTask(assignee *uuid.UUID, completed bool) *Task {
	return &Task{
		ID:           uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:         "test task",
		Completed:    completed,
		AssignedUser: assignee,
	}
}

func TestTaskMembershipDelta(t *testing.T) {
	taskID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	u1 := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	u2 := uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")

	tests := []struct {
		name string
		prev *Task
		next *Task
		want []MembershipOp
	}{
		{
			name: "create assigned pending",
			next: makeTask(&u1, false),
			want: []MembershipOp{{UserID: u1, TaskID: taskID, Add: true}},
		},
		{
			name: "create assigned completed",
			next: makeTask(&u1, true),
			want: nil,
		},
		{
			name: "create unassigned",
			next: makeTask(nil, false),
			want: nil,
		},
		{
			name: "delete pending",
			prev: makeTask(&u1, false),
			want: []MembershipOp{{UserID: u1, TaskID: taskID}},
		},
		{
			name: "delete completed was never pending",
			prev: makeTask(&u1, true),
			want: nil,
		},
		{
			name: "delete unassigned",
			prev: makeTask(nil, false),
			want: nil,
		},
		{
			name: "reassign",
			prev: makeTask(&u1, false),
			next: makeTask(&u2, false),
			want: []MembershipOp{
				{UserID: u1, TaskID: taskID},
				{UserID: u2, TaskID: taskID, Add: true},
			},
		},
		{
			name: "unassign",
			prev: makeTask(&u1, false),
			next: makeTask(nil, false),
			want: []MembershipOp{{UserID: u1, TaskID: taskID}},
		},
		{
			name: "assign",
			prev: makeTask(nil, false),
			next: makeTask(&u2, false),
			want: []MembershipOp{{UserID: u2, TaskID: taskID, Add: true}},
		},
		{
			name: "complete removes from pending set",
			prev: makeTask(&u1, false),
			next: makeTask(&u1, true),
			want: []MembershipOp{{UserID: u1, TaskID: taskID}},
		},
		{
			name: "reopen collapses duplicate adds",
			prev: makeTask(&u1, true),
			next: makeTask(&u1, false),
			want: []MembershipOp{{UserID: u1, TaskID: taskID, Add: true}},
		},
		{
			name: "no-op replace keeps idempotent add",
			prev: makeTask(&u1, false),
			next: makeTask(&u1, false),
			want: []MembershipOp{{UserID: u1, TaskID: taskID, Add: true}},
		},
		{
			name: "reassign completed only removes from previous owner",
			prev: makeTask(&u1, false),
			next: makeTask(&u2, true),
			want: []MembershipOp{{UserID: u1, TaskID: taskID}},
		},
		{
			name: "nothing to do",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TaskMembershipDelta(tt.prev, tt.next)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingSetDelta(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	tests := []struct {
		name        string
		prev        []uuid.UUID
		next        []uuid.UUID
		wantAdded   []uuid.UUID
		wantRemoved []uuid.UUID
	}{
		{
			name: "both empty",
		},
		{
			name:      "all added",
			next:      []uuid.UUID{a, b},
			wantAdded: []uuid.UUID{a, b},
		},
		{
			name:        "all removed",
			prev:        []uuid.UUID{a, b},
			wantRemoved: []uuid.UUID{a, b},
		},
		{
			name:        "symmetric difference",
			prev:        []uuid.UUID{a, b},
			next:        []uuid.UUID{b, c},
			wantAdded:   []uuid.UUID{c},
			wantRemoved: []uuid.UUID{a},
		},
		{
			name: "identical sets",
			prev: []uuid.UUID{a, b},
			next: []uuid.UUID{b, a},
		},
		{
			name:      "duplicates in next counted once",
			next:      []uuid.UUID{a, a, b},
			wantAdded: []uuid.UUID{a, b},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := PendingSetDelta(tt.prev, tt.next)
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantRemoved, removed)
		})
	}
}
