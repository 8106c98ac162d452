package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List live notifications",
		Description: "Returns the device's unexpired toasts, oldest first",
		Tags:        []string{"Notifications"},
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "dismissNotification",
		Method:      http.MethodDelete,
		Path:        "/api/v1/notifications/{id}",
		Summary:     "Dismiss a notification",
		Tags:        []string{"Notifications"},
	}, s.handleDismissNotification)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDialog",
		Method:      http.MethodGet,
		Path:        "/api/v1/dialog",
		Summary:     "Get the active dialog",
		Tags:        []string{"Notifications"},
	}, s.handleGetDialog)

	huma.Register(s.api, huma.Operation{
		OperationID: "showDialog",
		Method:      http.MethodPut,
		Path:        "/api/v1/dialog",
		Summary:     "Show a dialog",
		Description: "At most one dialog is active per device; showing replaces it",
		Tags:        []string{"Notifications"},
	}, s.handleShowDialog)

	huma.Register(s.api, huma.Operation{
		OperationID: "hideDialog",
		Method:      http.MethodDelete,
		Path:        "/api/v1/dialog",
		Summary:     "Hide the active dialog",
		Tags:        []string{"Notifications"},
	}, s.handleHideDialog)
}

// NotificationListOutput wraps live notifications for Huma.
type NotificationListOutput struct {
	Body struct {
		Notifications []*domain.Notification `json:"notifications"`
	}
}

func (s *Server) handleListNotifications(ctx context.Context, _ *struct{}) (*NotificationListOutput, error) {
	out := &NotificationListOutput{}
	out.Body.Notifications = s.notifier.Active(deviceID(ctx))
	return out, nil
}

// NotificationInput identifies a notification by path parameter.
type NotificationInput struct {
	ID string `path:"id" doc:"Notification ID"`
}

func (s *Server) handleDismissNotification(ctx context.Context, input *NotificationInput) (*DeleteOutput, error) {
	if !s.notifier.Dismiss(deviceID(ctx), input.ID) {
		return nil, huma.Error404NotFound("Notification not found")
	}

	out := &DeleteOutput{}
	out.Body.Success = true
	return out, nil
}

// DialogOutput wraps the device's dialog state for Huma.
type DialogOutput struct {
	Body struct {
		DialogID string `json:"dialog_id,omitempty"`
		Active   bool   `json:"active"`
	}
}

func (s *Server) handleGetDialog(ctx context.Context, _ *struct{}) (*DialogOutput, error) {
	out := &DialogOutput{}
	out.Body.DialogID, out.Body.Active = s.dialogs.Active(deviceID(ctx))
	return out, nil
}

// ShowDialogInput contains the dialog to show.
type ShowDialogInput struct {
	Body struct {
		DialogID string `json:"dialog_id" minLength:"1" doc:"Dialog to show" example:"premium-upgrade"`
	}
}

func (s *Server) handleShowDialog(ctx context.Context, input *ShowDialogInput) (*DialogOutput, error) {
	s.dialogs.Show(deviceID(ctx), input.Body.DialogID)

	out := &DialogOutput{}
	out.Body.DialogID = input.Body.DialogID
	out.Body.Active = true
	return out, nil
}

func (s *Server) handleHideDialog(ctx context.Context, _ *struct{}) (*DialogOutput, error) {
	s.dialogs.Hide(deviceID(ctx))
	return &DialogOutput{}, nil
}
