package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellesley-hci/lexi-api/internal/domain"
)

func TestCreateUser(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users", CreateUserRequest{
		Email: "Ada@Example.edu",
		Name:  "Ada",
		Role:  "participant",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.edu", resp.Email, "email should be normalized")
	assert.Equal(t, domain.UserStatusActive, resp.Status)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newRouterFixture(t)

	req := CreateUserRequest{Email: "ada@example.edu", Name: "Ada", Role: "participant"}
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/users", req).Code)

	rec := f.do(t, http.MethodPost, "/api/users", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUserRejectsBadEmail(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users", CreateUserRequest{
		Email: "not-an-email",
		Name:  "Ada",
		Role:  "participant",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinWorkspace(t *testing.T) {
	f := newRouterFixture(t)

	ws, err := domain.NewWorkspace("Campus Study", []domain.Question{
		{Text: "General Area", Type: domain.QuestionTypeSelect, Options: []string{"Library"}},
	})
	require.NoError(t, err)
	f.workspaces.items = []*domain.Workspace{ws}

	user, err := domain.NewUser("ada@example.edu", "Ada", "participant")
	require.NoError(t, err)
	f.users.items = []*domain.User{user}

	path := "/api/users/" + user.ID.String() + "/workspaces/" + ws.ID.String()

	rec := f.do(t, http.MethodPost, path, JoinWorkspaceRequest{AnchorAnswer: "Science Center"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Workspaces, ws.ID.String())
	assert.Equal(t, "Science Center", user.AnchorAnswer(ws.ID))

	t.Run("rejoin refreshes anchor answer", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, path, JoinWorkspaceRequest{AnchorAnswer: "Clapp Library"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Clapp Library", user.AnchorAnswer(ws.ID))
		assert.Len(t, user.Workspaces, 1)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		rec := f.do(t, http.MethodPost,
			"/api/users/"+user.ID.String()+"/workspaces/00000000-0000-0000-0000-000000000001",
			JoinWorkspaceRequest{AnchorAnswer: "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := f.do(t, http.MethodPost,
			"/api/users/00000000-0000-0000-0000-000000000001/workspaces/"+ws.ID.String(),
			JoinWorkspaceRequest{AnchorAnswer: "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing anchor answer", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, path, JoinWorkspaceRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
