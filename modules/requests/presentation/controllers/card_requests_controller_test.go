package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

type memoryRequestRepo struct {
	records map[uuid.UUID]*cardrequest.CardRequest
	nextSeq int64
}

func newMemoryRequestRepo() *memoryRequestRepo {
	return &memoryRequestRepo{records: map[uuid.UUID]*cardrequest.CardRequest{}}
}

func (m *memoryRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*cardrequest.CardRequest, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, composables.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memoryRequestRepo) GetPaginated(_ context.Context, params *cardrequest.FindParams) ([]*cardrequest.CardRequest, error) {
	var out []*cardrequest.CardRequest
	for _, rec := range m.records {
		if params != nil && params.Status != "" && rec.Status != params.Status {
			continue
		}
		copied := *rec
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryRequestRepo) Count(ctx context.Context, params *cardrequest.FindParams) (int64, error) {
	items, err := m.GetPaginated(ctx, params)
	return int64(len(items)), err
}

func (m *memoryRequestRepo) Create(_ context.Context, data *cardrequest.CardRequest) (*cardrequest.CardRequest, error) {
	m.nextSeq++
	copied := *data
	copied.RequestID = m.nextSeq
	copied.Version = 1
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.records[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (m *memoryRequestRepo) Update(_ context.Context, data *cardrequest.CardRequest) error {
	current, ok := m.records[data.ID]
	if !ok {
		return composables.ErrNotFound
	}
	if current.Version != data.Version {
		return cardrequest.ErrVersionConflict
	}
	copied := *data
	copied.Version++
	copied.UpdatedAt = time.Now()
	copied.Comments = current.Comments
	m.records[data.ID] = &copied
	return nil
}

func (m *memoryRequestRepo) AppendComment(_ context.Context, id uuid.UUID, comment cardrequest.Comment) error {
	rec, ok := m.records[id]
	if !ok {
		return composables.ErrNotFound
	}
	comment.ID = uint(len(rec.Comments) + 1)
	rec.Comments = append(rec.Comments, comment)
	return nil
}

func (m *memoryRequestRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func sessionUser(id uint, role user.Role) user.User {
	return user.New("tester@example.com", "Terry", "Tester",
		user.WithID(id),
		user.WithRole(role),
		user.WithEnvAccess(user.EnvAccess{Prod: true, QA: true, Test: true}),
	)
}

// newTestRouter wires the controller against a memory repo with the given
// session user injected ahead of the auth guard.
func newTestRouter(t *testing.T, u user.User) (*mux.Router, *memoryRequestRepo) {
	t.Helper()
	repo := newMemoryRequestRepo()
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logrus.New()),
		Logger:   logrus.New(),
	})
	app.RegisterServices(services.NewCardRequestService(repo, app.EventPublisher()))

	router := mux.NewRouter()
	if u != nil {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(composables.WithUser(r.Context(), u)))
			})
		})
	}
	NewCardRequestsController(app).Register(router)
	return router, repo
}

func doJSON(t *testing.T, router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestController_RequiresAuthentication(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/card-requests", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestController_CreateAndGet(t *testing.T) {
	router, _ := newTestRouter(t, sessionUser(7, user.RoleRequester))

	rec := doJSON(t, router, http.MethodPost, "/card-requests",
		`{"snRequest":"SN100","requestForSelf":true,"environment":"qa","terminalType":"ecomm"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeEnvelope(t, rec)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	require.Equal(t, "draft", data["status"])
	require.Equal(t, float64(1), data["requestId"])
	require.Equal(t, "tester@example.com", data["requestorInfo"].(map[string]any)["email"])

	rec = doJSON(t, router, http.MethodGet, "/card-requests/"+data["id"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestController_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t, sessionUser(7, user.RoleRequester))

	rec := doJSON(t, router, http.MethodPost, "/card-requests", `{"requestForSelf":true}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeEnvelope(t, rec)
	require.Equal(t, "VALIDATION_FAILED", body["code"])
	require.Contains(t, body["meta"].(map[string]any), "SNTicket")
}

func TestController_BadIDAndBadQuery(t *testing.T) {
	router, _ := newTestRouter(t, sessionUser(7, user.RoleRequester))

	rec := doJSON(t, router, http.MethodGet, "/card-requests/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_ID", decodeEnvelope(t, rec)["code"])

	rec = doJSON(t, router, http.MethodGet, "/card-requests?status=bogus", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_STATUS", decodeEnvelope(t, rec)["code"])
}

func TestController_LegacyEnvelope(t *testing.T) {
	requester := sessionUser(7, user.RoleRequester)
	router, repo := newTestRouter(t, requester)

	rec := doJSON(t, router, http.MethodPost, "/card-requests",
		`{"snRequest":"SN200","requestForSelf":true,"environment":"qa","terminalType":"ecomm"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec)["data"].(map[string]any)["id"].(string)

	// An empty envelope is refused outright.
	rec = doJSON(t, router, http.MethodPut, "/card-requests/"+id, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "EMPTY_UPDATE", decodeEnvelope(t, rec)["code"])

	// column + submitData routes to the matching wizard step.
	rec = doJSON(t, router, http.MethodPut, "/card-requests/"+id,
		`{"column":"test_info","submitData":{"objective":"contactless regression"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	uid, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, "contactless regression", repo.records[uid].TestInfo.Objective)

	rec = doJSON(t, router, http.MethodPut, "/card-requests/"+id, `{"column":"weird_column"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", decodeEnvelope(t, rec)["code"])
}

func TestController_LegacyEnvelopeTransition(t *testing.T) {
	requester := sessionUser(7, user.RoleRequester)
	router, _ := newTestRouter(t, requester)

	rec := doJSON(t, router, http.MethodPost, "/card-requests",
		`{"snRequest":"SN300","requestForSelf":true,"environment":"qa","terminalType":"ecomm"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPut, "/card-requests/shipping-details/"+id,
		`{"cardCount":1,"addresses":[{"line1":"1 Main St","city":"Springfield","country":"US"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "submitted", decodeEnvelope(t, rec)["data"].(map[string]any)["status"])

	// Statuses outside the transition verbs cannot be requested directly.
	rec = doJSON(t, router, http.MethodPut, "/card-requests/"+id, `{"status":"draft"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_STATUS", decodeEnvelope(t, rec)["code"])
}
