package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/handlers/mocks"
	"merchant-assistant/internal/service"
)

// newRequest builds a request carrying the caller identity and chi URL params.
func newRequest(t *testing.T, method, target string, body any, userID string, params map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if userID != "" {
		ctx = contextutil.WithUserID(ctx, userID)
	}
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		mockSetup  func(*mocks.MockConversationAPI)
		wantStatus int
	}{
		{
			name: "successful request",
			body: SendMessageRequest{Content: "差评如何申诉？"},
			mockSetup: func(m *mocks.MockConversationAPI) {
				m.EXPECT().
					SendMessage(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req service.SendMessageRequest) (*service.AnswerPayload, error) {
						if req.UserID != "u1" {
							t.Errorf("UserID = %s, want u1", req.UserID)
						}
						if req.ConversationID != "c1" {
							t.Errorf("ConversationID = %s, want c1", req.ConversationID)
						}
						if req.Content != "差评如何申诉？" {
							t.Errorf("Content = %s", req.Content)
						}
						return &service.AnswerPayload{ConversationID: "c1", Content: "答复"}, nil
					})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid JSON body",
			body:       "not json",
			mockSetup:  func(m *mocks.MockConversationAPI) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "validation error",
			body: SendMessageRequest{Content: ""},
			mockSetup: func(m *mocks.MockConversationAPI) {
				m.EXPECT().
					SendMessage(gomock.Any(), gomock.Any()).
					Return(nil, &service.ValidationError{Field: "content", Message: "message content must not be empty"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "conversation not found",
			body: SendMessageRequest{Content: "你好"},
			mockSetup: func(m *mocks.MockConversationAPI) {
				m.EXPECT().
					SendMessage(gomock.Any(), gomock.Any()).
					Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "generation failure",
			body: SendMessageRequest{Content: "你好"},
			mockSetup: func(m *mocks.MockConversationAPI) {
				m.EXPECT().
					SendMessage(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("%w: completion failed", service.ErrExternalService))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAPI := mocks.NewMockConversationAPI(ctrl)
			tt.mockSetup(mockAPI)
			handler := NewChatHandler(mockAPI)

			req := newRequest(t, http.MethodPost, "/api/conversations/c1/messages", tt.body,
				"u1", map[string]string{"conversationID": "c1"})
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestChatHandler_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockConversationAPI(ctrl)
	mockAPI.EXPECT().
		StreamMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ service.SendMessageRequest, emit service.EmitFunc) error {
			if err := emit(service.Event{Type: service.EventAnswerToken, Payload: "你好"}); err != nil {
				return err
			}
			return emit(service.Event{Type: service.EventAnswerCompleted, Payload: service.AnswerPayload{Content: "你好"}})
		})

	handler := NewChatHandler(mockAPI)
	req := newRequest(t, http.MethodPost, "/api/conversations/c1/messages?stream=true",
		SendMessageRequest{Content: "你好"}, "u1", map[string]string{"conversationID": "c1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %s, want text/event-stream", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"type":"answer_token"`) {
		t.Errorf("body missing answer_token event: %s", body)
	}
	if !strings.Contains(body, `"type":"answer_completed"`) {
		t.Errorf("body missing answer_completed event: %s", body)
	}
	if !strings.Contains(body, "data: [DONE]") {
		t.Errorf("body missing done marker: %s", body)
	}
}

func TestChatHandler_StreamValidationRejectedBeforeEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockConversationAPI(ctrl)
	mockAPI.EXPECT().
		StreamMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&service.ValidationError{Field: "content", Message: "消息内容不能为空"})

	handler := NewChatHandler(mockAPI)
	req := newRequest(t, http.MethodPost, "/api/messages?stream=true",
		SendMessageRequest{Content: "   "}, "u1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp.Error, "Validation error") {
		t.Errorf("error = %q, want validation message", resp.Error)
	}
}

func TestChatHandler_StreamUnknownConversationIs404(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockConversationAPI(ctrl)
	mockAPI.EXPECT().
		StreamMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(service.ErrNotFound)

	handler := NewChatHandler(mockAPI)
	req := newRequest(t, http.MethodPost, "/api/conversations/missing/messages?stream=true",
		SendMessageRequest{Content: "你好"}, "u1", map[string]string{"conversationID": "missing"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if strings.Contains(w.Body.String(), "data:") {
		t.Errorf("rejected stream must not carry SSE frames: %s", w.Body.String())
	}
}

func TestChatHandler_StreamErrorClosesWithoutDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockConversationAPI(ctrl)
	mockAPI.EXPECT().
		StreamMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ service.SendMessageRequest, emit service.EmitFunc) error {
			_ = emit(service.Event{Type: service.EventError, Payload: map[string]string{"message": "生成失败"}})
			return fmt.Errorf("%w: completion failed", service.ErrExternalService)
		})

	handler := NewChatHandler(mockAPI)
	req := newRequest(t, http.MethodPost, "/api/messages?stream=true",
		SendMessageRequest{Content: "你好"}, "u1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `"type":"error"`) {
		t.Errorf("body missing error event: %s", body)
	}
	if strings.Contains(body, "data: [DONE]") {
		t.Errorf("failed stream must not emit the done marker: %s", body)
	}
}
