package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/session"
)

// Option is one entry of an editor select list.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// EditorView is the editor state plus the choices it offers.
type EditorView struct {
	*appointments.Editor
	Patients  []Option `json:"patients"`
	Providers []Option `json:"providers"`
}

// NewEditor opens the create-mode editor anchored at anchor.
func (s *Service) NewEditor(ctx context.Context, actor session.User, anchor time.Time) (EditorView, error) {
	scope, err := gateway.ScopeAppointments(ctx, s.gw, actor, appointments.Filter{})
	if err != nil {
		return EditorView{}, err
	}
	editor := appointments.NewCreateEditor(actor, anchor)
	if scope.PatientID != "" {
		editor.Form.PatientID = scope.PatientID
	}
	return s.editorView(ctx, actor, scope, editor)
}

// EditEditor opens appointment id in edit mode.
func (s *Service) EditEditor(ctx context.Context, actor session.User, id string) (EditorView, error) {
	appt, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return EditorView{}, err
	}
	scope, err := gateway.ScopeAppointments(ctx, s.gw, actor, appointments.Filter{})
	if err != nil {
		return EditorView{}, err
	}
	return s.editorView(ctx, actor, scope, appointments.NewEditEditor(actor, appt))
}

func (s *Service) editorView(ctx context.Context, actor session.User, scope appointments.Filter, editor *appointments.Editor) (EditorView, error) {
	view := EditorView{Editor: editor, Patients: []Option{}, Providers: []Option{}}

	if scope.PatientID != "" {
		profile, err := s.gw.GetPatient(ctx, scope.PatientID)
		if err != nil {
			return EditorView{}, fmt.Errorf("schedule: load own profile: %w", err)
		}
		view.Patients = append(view.Patients, Option{ID: profile.ID, Label: profile.DisplayName()})
	} else {
		list, err := s.gw.ListPatients(ctx)
		if err != nil {
			return EditorView{}, fmt.Errorf("schedule: list patients: %w", err)
		}
		for _, p := range list {
			view.Patients = append(view.Patients, Option{ID: p.ID, Label: p.DisplayName()})
		}
	}

	providers, err := s.gw.ListProviders(ctx)
	if err != nil {
		return EditorView{}, fmt.Errorf("schedule: list providers: %w", err)
	}
	for _, p := range providers {
		if editor.ProviderPinned && p.ID != actor.ID {
			continue
		}
		view.Providers = append(view.Providers, Option{ID: p.ID, Label: p.SessionUser().DisplayName()})
	}
	return view, nil
}
