package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docvault/internal/model"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateFolder(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(m *serviceMocks.MockFolderService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "created under parent",
			body: `{"name":"Q1","parentId":"p1"}`,
			setupMocks: func(m *serviceMocks.MockFolderService) {
				m.On("Create", mock.Anything, "Q1", mock.MatchedBy(func(p *string) bool {
					return p != nil && *p == "p1"
				})).Return(&model.Folder{ID: "f1", Name: "Q1"}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "missing name",
			body: `{"parentId":null}`,
			setupMocks: func(m *serviceMocks.MockFolderService) {
				m.On("Create", mock.Anything, "", (*string)(nil)).Return(nil, service.ErrNameRequired)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "NAME_REQUIRED",
		},
		{
			name:       "malformed body",
			body:       `{`,
			setupMocks: func(m *serviceMocks.MockFolderService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name: "service error",
			body: `{"name":"x"}`,
			setupMocks: func(m *serviceMocks.MockFolderService) {
				m.On("Create", mock.Anything, "x", (*string)(nil)).Return(nil, errors.New("db fail"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(serviceMocks.MockFolderService)
			tt.setupMocks(m)
			app := fiber.New()
			app.Post("/folders", CreateFolder(m))

			req := httptest.NewRequest(http.MethodPost, "/folders", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeEnvelope(t, resp.Body)
			assert.Equal(t, tt.wantCode, body.Code)
			m.AssertExpectations(t)
		})
	}
}

func TestFolderReads(t *testing.T) {
	m := new(serviceMocks.MockFolderService)
	app := fiber.New()
	app.Get("/folders", ListFolders(m))
	app.Get("/folders/tree", FolderTree(m))
	app.Get("/folders/:id", GetFolder(m))
	app.Delete("/folders/:id", DeleteFolder(m))

	m.On("List", mock.Anything).Return([]model.Folder{{ID: "a"}}, nil).Once()
	m.On("Tree", mock.Anything).Return([]model.FolderNode{{Folder: model.Folder{ID: "a"}}}, nil).Once()
	m.On("Get", mock.Anything, "missing").Return(nil, service.ErrFolderNotFound).Once()
	m.On("Delete", mock.Anything, "a").Return(nil).Once()
	m.On("Delete", mock.Anything, "missing").Return(service.ErrFolderNotFound).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/folders", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeEnvelope(t, resp.Body).Data, 1)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/folders/tree", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	tree := decodeEnvelope(t, resp.Body).Data.([]any)
	assert.Contains(t, tree[0], "children")

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/folders/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/folders/a", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Folder deleted successfully", decodeEnvelope(t, resp.Body).Message)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/folders/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	m.AssertExpectations(t)
}
