package server

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/pkg/flash"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, "home", http.StatusOK, homePage{
		layout: layout{
			Title:   "Scenario Editor",
			Notices: flash.ReadAndClear(w, r),
		},
	})
}

func (s *Server) homeSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest)
		return
	}
	raw := r.PostFormValue("scenario_id")
	if strings.TrimSpace(raw) == "" {
		flash.Write(w, r, flash.Danger("Please provide a Scenario ID."))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, editPath(raw), http.StatusSeeOther)
}

func (s *Server) editView(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("scenario_id")
	r = r.WithContext(global.WithScenarioID(r.Context(), raw))

	loaded, err := s.Repository.Get(r.Context(), raw)
	if err != nil {
		s.fail(w, r, raw, err, http.StatusFound)
		return
	}

	render(w, r, "edit_scenario", http.StatusOK, editPage{
		layout: layout{
			Title:   fmt.Sprintf("Edit Scenario %d", loaded.Scenario.ID),
			Notices: flash.ReadAndClear(w, r),
		},
		ID:       loaded.Scenario.ID,
		Action:   editPath(raw),
		Revision: loaded.Revision,
		Fields:   editFields(scenario.Display(loaded.Scenario.Sections, s.StripLabel)),
	})
}

func (s *Server) editSubmit(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("scenario_id")
	r = r.WithContext(global.WithScenarioID(r.Context(), raw))
	ctx := r.Context()

	fields, err := readForm(w, r)
	if err != nil {
		s.fail(w, r, raw, err, http.StatusSeeOther)
		return
	}

	res, err := s.Repository.Update(ctx, raw, repository.Submission{
		Fields:   fields,
		Revision: revisionOf(fields),
	})
	if err != nil {
		s.fail(w, r, raw, err, http.StatusSeeOther)
		return
	}

	logger := global.Log()
	logger.Info(ctx, "scenario updated",
		zap.Bool("changed", res.Changed()),
	)

	notices := []flash.Notice{
		flash.Success(fmt.Sprintf("Successfully updated Scenario ID %s.", raw)),
	}
	if s.Audit != nil {
		if err := s.Audit.Record(ctx, res.ID, res.Before, res.After); err != nil {
			logger.Error(ctx, "recording edit in audit log",
				zap.Error(err),
			)
			notices = append(notices, flash.Warning("The edit has been saved but could not be recorded in the audit log."))
		}
	}

	flash.Write(w, r, notices...)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fail redirects with a notice when the user can act upon the error, or
// renders the error page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, raw string, err error, redirect int) {
	if notice, to, ok := noticeFromError(raw, err); ok {
		global.Log().Debug(r.Context(), "redirecting with notice",
			zap.String("message", notice.Message),
			zap.Error(err),
		)
		flash.Write(w, r, notice)
		http.Redirect(w, r, to, redirect)
		return
	}

	status := statusFromError(err)
	global.Log().Error(r.Context(), "serving scenario",
		zap.Int("status", status),
		zap.Error(err),
	)
	renderError(w, r, status)
}
