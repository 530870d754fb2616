package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тестовые структуры данных соответствующие API
type UserRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks *[]string `json:"pendingTasks,omitempty"`
}

type TaskRequest struct {
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Deadline     string `json:"deadline,omitempty"`
	Completed    bool   `json:"completed"`
	AssignedUser string `json:"assignedUser,omitempty"`
}

type UserDoc struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PendingTasks []string `json:"pendingTasks"`
}

type TaskDoc struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Deadline         string `json:"deadline"`
	Completed        bool   `json:"completed"`
	AssignedUser     string `json:"assignedUser"`
	AssignedUserName string `json:"assignedUserName"`
}

const testDeadline = "2026-12-01T00:00:00Z"

func pending(ids ...string) *[]string {
	list := append([]string{}, ids...)
	return &list
}

// createUser создает пользователя и возвращает его документ
func createUser(t *testing.T, env *TestEnvironment, name, email string) UserDoc {
	t.Helper()

	resp := env.DoJSON(t, http.MethodPost, "/users", UserRequest{Name: name, Email: email})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "User creation should succeed")

	var user UserDoc
	env.ReadEnvelope(t, resp, &user)
	require.NotEmpty(t, user.ID)
	return user
}

// createTask создает задачу и возвращает ее документ
func createTask(t *testing.T, env *TestEnvironment, req TaskRequest) TaskDoc {
	t.Helper()

	resp := env.DoJSON(t, http.MethodPost, "/tasks", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "Task creation should succeed")

	var task TaskDoc
	env.ReadEnvelope(t, resp, &task)
	require.NotEmpty(t, task.ID)
	return task
}

func getUser(t *testing.T, env *TestEnvironment, id string) UserDoc {
	t.Helper()

	resp := env.MakeRequest(t, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user UserDoc
	env.ReadEnvelope(t, resp, &user)
	return user
}

func getTask(t *testing.T, env *TestEnvironment, id string) TaskDoc {
	t.Helper()

	resp := env.MakeRequest(t, http.MethodGet, "/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var task TaskDoc
	env.ReadEnvelope(t, resp, &task)
	return task
}

// TestE2E_AssignmentWorkflow проверяет поддержание инварианта
// pendingTasks ⇔ assignedUser на полном жизненном цикле задач и пользователей
func TestE2E_AssignmentWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Настраиваем тестовое окружение
	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	// Ждем пока приложение будет готово
	env.WaitForHealthCheck(t)

	alice := createUser(t, env, "Alice", "alice@example.com")
	bob := createUser(t, env, "Bob", "bob@example.com")

	t.Run("Duplicate Email Conflict", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPost, "/users", UserRequest{Name: "Another Alice", Email: "alice@example.com"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	var task TaskDoc
	t.Run("Create Assigned Task", func(t *testing.T) {
		task = createTask(t, env, TaskRequest{
			Name:         "Wash dishes",
			Deadline:     testDeadline,
			AssignedUser: alice.ID,
		})

		assert.Equal(t, alice.ID, task.AssignedUser)
		assert.Equal(t, "Alice", task.AssignedUserName)

		// Задача появляется в pendingTasks исполнителя
		assert.Contains(t, getUser(t, env, alice.ID).PendingTasks, task.ID)
		env.CheckInvariant(t)
	})

	t.Run("Complete Removes From Pending", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/tasks/"+task.ID, TaskRequest{
			Name:         "Wash dishes",
			Deadline:     testDeadline,
			Completed:    true,
			AssignedUser: alice.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated TaskDoc
		env.ReadEnvelope(t, resp, &updated)

		// Исполнитель сохраняется, но из pendingTasks задача уходит
		assert.Equal(t, alice.ID, updated.AssignedUser)
		assert.NotContains(t, getUser(t, env, alice.ID).PendingTasks, task.ID)
		env.CheckInvariant(t)
	})

	t.Run("Reopen Restores Pending", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/tasks/"+task.ID, TaskRequest{
			Name:         "Wash dishes",
			Deadline:     testDeadline,
			AssignedUser: alice.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		assert.Contains(t, getUser(t, env, alice.ID).PendingTasks, task.ID)
		env.CheckInvariant(t)
	})

	t.Run("Reassign Moves Membership", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/tasks/"+task.ID, TaskRequest{
			Name:         "Wash dishes",
			Deadline:     testDeadline,
			AssignedUser: bob.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated TaskDoc
		env.ReadEnvelope(t, resp, &updated)
		assert.Equal(t, "Bob", updated.AssignedUserName)

		// Задача ровно в одном множестве
		assert.NotContains(t, getUser(t, env, alice.ID).PendingTasks, task.ID)
		assert.Contains(t, getUser(t, env, bob.ID).PendingTasks, task.ID)
		env.CheckInvariant(t)
	})

	t.Run("Pending Replacement Claims Task", func(t *testing.T) {
		// Алиса забирает задачу Боба через замену своего pendingTasks
		resp := env.DoJSON(t, http.MethodPut, "/users/"+alice.ID, UserRequest{
			Name:         "Alice Anderson",
			Email:        "alice@example.com",
			PendingTasks: pending(task.ID),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated UserDoc
		env.ReadEnvelope(t, resp, &updated)
		assert.Contains(t, updated.PendingTasks, task.ID)

		claimed := getTask(t, env, task.ID)
		assert.Equal(t, alice.ID, claimed.AssignedUser)
		assert.Equal(t, "Alice Anderson", claimed.AssignedUserName)

		assert.NotContains(t, getUser(t, env, bob.ID).PendingTasks, task.ID)
		env.CheckInvariant(t)
	})

	t.Run("Pending Removal Unassigns Task", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/users/"+alice.ID, UserRequest{
			Name:         "Alice Anderson",
			Email:        "alice@example.com",
			PendingTasks: pending(),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		unassigned := getTask(t, env, task.ID)
		assert.Empty(t, unassigned.AssignedUser)
		assert.Equal(t, "unassigned", unassigned.AssignedUserName)
		env.CheckInvariant(t)
	})

	t.Run("Claiming Nonexistent Task Rolls Back", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/users/"+alice.ID, UserRequest{
			Name:         "Alice Rolledback",
			Email:        "alice@example.com",
			PendingTasks: pending(uuid.NewString()),
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		// Транзакция откатилась целиком, включая смену имени
		assert.Equal(t, "Alice Anderson", getUser(t, env, alice.ID).Name)
		env.CheckInvariant(t)
	})

	t.Run("Delete Task Cascades", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/tasks/"+task.ID, TaskRequest{
			Name:         "Wash dishes",
			Deadline:     testDeadline,
			AssignedUser: alice.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = env.MakeRequest(t, http.MethodDelete, "/tasks/"+task.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		assert.NotContains(t, getUser(t, env, alice.ID).PendingTasks, task.ID)
		env.CheckInvariant(t)

		// Повторное удаление не запускает каскад второй раз
		resp = env.MakeRequest(t, http.MethodDelete, "/tasks/"+task.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Delete User Cascades", func(t *testing.T) {
		carol := createUser(t, env, "Carol", "carol@example.com")

		taskIDs := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			created := createTask(t, env, TaskRequest{
				Name:         fmt.Sprintf("carol task %d", i),
				Deadline:     testDeadline,
				Completed:    i == 2, // завершенные задачи тоже открепляются
				AssignedUser: carol.ID,
			})
			taskIDs = append(taskIDs, created.ID)
		}

		resp := env.MakeRequest(t, http.MethodDelete, "/users/"+carol.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		for _, id := range taskIDs {
			orphan := getTask(t, env, id)
			assert.Empty(t, orphan.AssignedUser)
			assert.Equal(t, "unassigned", orphan.AssignedUserName)
		}
		env.CheckInvariant(t)

		resp = env.MakeRequest(t, http.MethodDelete, "/users/"+carol.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

// TestE2E_ListQueriesAndBoundaries проверяет трансляцию списочных запросов
// и граничные случаи обработки параметров
func TestE2E_ListQueriesAndBoundaries(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	u1 := createUser(t, env, "Dave", "dave@example.com")
	createUser(t, env, "Erin", "erin@example.com")

	// 105 задач: первые 7 завершены, четные назначены Dave
	const totalTasks = 105
	const completedTasks = 7
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < totalTasks; i++ {
		req := TaskRequest{
			Name:      fmt.Sprintf("task-%03d", i),
			Deadline:  base.AddDate(0, 0, i).Format(time.RFC3339),
			Completed: i < completedTasks,
		}
		if i%2 == 0 && !req.Completed {
			req.AssignedUser = u1.ID
		}
		createTask(t, env, req)
	}
	env.CheckInvariant(t)

	listTasks := func(t *testing.T, params url.Values) []TaskDoc {
		t.Helper()
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?"+params.Encode(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var docs []TaskDoc
		env.ReadEnvelope(t, resp, &docs)
		return docs
	}

	t.Run("Default Task Limit Is 100", func(t *testing.T) {
		docs := listTasks(t, url.Values{})
		assert.Len(t, docs, 100)
	})

	t.Run("Users Are Unlimited By Default", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/users", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var docs []UserDoc
		env.ReadEnvelope(t, resp, &docs)
		assert.Len(t, docs, 2)
	})

	t.Run("Where Filter", func(t *testing.T) {
		docs := listTasks(t, url.Values{"where": {`{"completed":true}`}})
		assert.Len(t, docs, completedTasks)
		for _, doc := range docs {
			assert.True(t, doc.Completed)
		}
	})

	t.Run("Where On Assignee", func(t *testing.T) {
		docs := listTasks(t, url.Values{"where": {fmt.Sprintf(`{"assignedUser":%q}`, u1.ID)}})
		for _, doc := range docs {
			assert.Equal(t, u1.ID, doc.AssignedUser)
		}
		assert.ElementsMatch(t, getUser(t, env, u1.ID).PendingTasks, taskIDsOf(docs))
	})

	t.Run("Count Mode Ignores Sort And Pagination", func(t *testing.T) {
		params := url.Values{
			"count": {"true"},
			"where": {`{"completed":true}`},
			"sort":  {`notjson`},
			"limit": {"1"},
		}
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?"+params.Encode(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var count int
		env.ReadEnvelope(t, resp, &count)
		assert.Equal(t, completedTasks, count)
	})

	t.Run("Sort Skip Limit", func(t *testing.T) {
		docs := listTasks(t, url.Values{
			"sort":  {`{"deadline":-1}`},
			"skip":  {"5"},
			"limit": {"5"},
		})
		require.Len(t, docs, 5)
		for i, doc := range docs {
			assert.Equal(t, fmt.Sprintf("task-%03d", totalTasks-6-i), doc.Name)
		}
	})

	t.Run("Default Projection Excludes Revision", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?limit=1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var docs []map[string]any
		env.ReadEnvelope(t, resp, &docs)
		require.Len(t, docs, 1)
		assert.Contains(t, docs[0], "name")
		assert.NotContains(t, docs[0], "revision")
	})

	t.Run("Select Keeps Requested Fields And ID", func(t *testing.T) {
		params := url.Values{"select": {`{"name":1}`}, "limit": {"3"}}
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?"+params.Encode(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var docs []map[string]any
		env.ReadEnvelope(t, resp, &docs)
		require.Len(t, docs, 3)
		for _, doc := range docs {
			assert.Len(t, doc, 2)
			assert.Contains(t, doc, "id")
			assert.Contains(t, doc, "name")
		}
	})

	t.Run("Malformed Where Names Parameter", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?where=notjson", nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		message := env.ReadEnvelope(t, resp, nil)
		assert.Contains(t, message, "where")
	})

	t.Run("Malformed Sort Names Parameter", func(t *testing.T) {
		params := url.Values{"sort": {`{"deadline":"desc"}`}}
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?"+params.Encode(), nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		message := env.ReadEnvelope(t, resp, nil)
		assert.Contains(t, message, "sort")
	})

	t.Run("Unknown Filter Field Is Rejected", func(t *testing.T) {
		params := url.Values{"where": {`{"nosuchfield":1}`}}
		resp := env.MakeRequest(t, http.MethodGet, "/tasks?"+params.Encode(), nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Malformed Item ID Is Not Found", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPut, "/tasks/badid", TaskRequest{Name: "x", Deadline: testDeadline})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()

		resp = env.MakeRequest(t, http.MethodGet, "/users/badid", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Missing Required Fields", func(t *testing.T) {
		resp := env.DoJSON(t, http.MethodPost, "/tasks", TaskRequest{Deadline: testDeadline})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.ReadEnvelope(t, resp, nil), "name")

		resp = env.DoJSON(t, http.MethodPost, "/tasks", TaskRequest{Name: "no deadline"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.ReadEnvelope(t, resp, nil), "deadline")

		resp = env.DoJSON(t, http.MethodPost, "/users", UserRequest{Name: "no email"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Invalid Assignee Creates Nothing", func(t *testing.T) {
		countBefore := countTasks(t, env)

		// Несуществующий пользователь
		resp := env.DoJSON(t, http.MethodPost, "/tasks", TaskRequest{
			Name:         "orphan",
			Deadline:     testDeadline,
			AssignedUser: uuid.NewString(),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		// Структурно невалидный идентификатор
		resp = env.DoJSON(t, http.MethodPost, "/tasks", TaskRequest{
			Name:         "orphan",
			Deadline:     testDeadline,
			AssignedUser: "not-a-uuid",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		assert.Equal(t, countBefore, countTasks(t, env))
		env.CheckInvariant(t)
	})
}

func countTasks(t *testing.T, env *TestEnvironment) int {
	t.Helper()

	resp := env.MakeRequest(t, http.MethodGet, "/tasks?count=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int
	env.ReadEnvelope(t, resp, &count)
	return count
}

func taskIDsOf(docs []TaskDoc) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}
