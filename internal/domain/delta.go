package domain

import "github.com/google/uuid"

// MembershipOp описывает одно изменение множества pendingTasks пользователя.
// Add=true — добавить TaskID в множество UserID, иначе убрать.
type MembershipOp struct {
	UserID uuid.UUID
	TaskID uuid.UUID
	Add    bool
}

// TaskMembershipDelta вычисляет вторичные записи для восстановления инварианта
// после мутации задачи. prev == nil означает создание, next == nil — удаление.
// Функция чистая: читает только переданные состояния.
func TaskMembershipDelta(prev, next *Task) []MembershipOp {
	var ops []MembershipOp

	switch {
	case prev == nil && next == nil:
		return nil

	case prev == nil:
		// Создание: назначенная и не завершенная задача попадает в pendingTasks
		if next.AssignedUser != nil && !next.Completed {
			ops = append(ops, MembershipOp{UserID: *next.AssignedUser, TaskID: next.ID, Add: true})
		}

	case next == nil:
		// Удаление: завершенная задача в pendingTasks не состояла
		if prev.AssignedUser != nil && !prev.Completed {
			ops = append(ops, MembershipOp{UserID: *prev.AssignedUser, TaskID: prev.ID})
		}

	default:
		sameAssignee := sameUser(prev.AssignedUser, next.AssignedUser)

		if !sameAssignee && prev.AssignedUser != nil {
			ops = append(ops, MembershipOp{UserID: *prev.AssignedUser, TaskID: prev.ID})
		}
		if next.AssignedUser != nil && !next.Completed {
			ops = append(ops, MembershipOp{UserID: *next.AssignedUser, TaskID: next.ID, Add: true})
		}
		if sameAssignee && next.AssignedUser != nil && prev.Completed != next.Completed {
			if prev.Completed {
				ops = append(ops, MembershipOp{UserID: *next.AssignedUser, TaskID: next.ID, Add: true})
			} else {
				ops = append(ops, MembershipOp{UserID: *next.AssignedUser, TaskID: next.ID})
			}
		}
	}

	return dedupeOps(ops)
}

// PendingSetDelta вычисляет симметрическую разность множеств pendingTasks
// при замене пользователя. Порядок следует порядку входных срезов.
func PendingSetDelta(prev, next []uuid.UUID) (added, removed []uuid.UUID) {
	prevSet := make(map[uuid.UUID]bool, len(prev))
	for _, id := range prev {
		prevSet[id] = true
	}
	nextSet := make(map[uuid.UUID]bool, len(next))
	for _, id := range next {
		if nextSet[id] {
			continue
		}
		nextSet[id] = true
		if !prevSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !nextSet[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// dedupeOps схлопывает повторяющиеся операции над одной парой (user, task)
func dedupeOps(ops []MembershipOp) []MembershipOp {
	if len(ops) < 2 {
		return ops
	}
	seen := make(map[MembershipOp]bool, len(ops))
	out := ops[:0]
	for _, op := range ops {
		if seen[op] {
			continue
		}
		seen[op] = true
		out = append(out, op)
	}
	return out
}

func sameUser(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
