package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BBplayer2021/BioPlotLab/internal/analytics"
	"github.com/BBplayer2021/BioPlotLab/internal/leads"
	mw "github.com/BBplayer2021/BioPlotLab/internal/middleware"
	"github.com/BBplayer2021/BioPlotLab/internal/observability"
	"github.com/BBplayer2021/BioPlotLab/internal/site"
)

// maxEventBytes bounds browser analytics payloads.
const maxEventBytes = 8 << 10

// submit queues sub and reports whether the visitor should see an error. Only an
// invalid email does; a full queue or a closing service still shows success.
func (a *app) submit(r *http.Request, sub leads.Submission) error {
	receipt, err := a.leads.Submit(r.Context(), sub)
	if err == nil || errors.Is(err, leads.ErrInvalidEmail) {
		return err
	}
	observability.FromContext(r.Context()).Warn("leads: submission not queued",
		zap.String("submissionId", receipt.ID),
		zap.String("source", sub.Source),
		zap.Error(err),
	)
	return nil
}

// submitLead handles the lead-capture form.
func (a *app) submitLead(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	email := strings.TrimSpace(r.PostFormValue("email"))

	err := a.submit(r, leads.NewLead(email, lang))
	if err == nil {
		a.track(r, analytics.LeadCaptureSubmit(email, ""))
	}
	form := a.builder.LeadResult(lang, csrf, email, err)
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}

	if isHTMX(r) {
		a.renderTemplate(w, r, status, "frag_lead_form", form)
		return
	}
	if err == nil {
		http.Redirect(w, r, "/?lead=submitted#"+site.AnchorLead, http.StatusSeeOther)
		return
	}
	a.renderPage(w, r, status, "home", a.builder.Home(lang, site.HomeState{
		Path:      "/",
		CSRFToken: csrf,
		Lead:      &form,
	}))
}

// pricingModal opens the interest dialog for ?plan=.
func (a *app) pricingModal(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	modal, err := a.builder.PricingModal(lang, r.URL.Query().Get("plan"), csrf)
	if err != nil {
		a.planNotFound(w, r, lang)
		return
	}
	if isHTMX(r) {
		a.renderTemplate(w, r, http.StatusOK, "frag_pricing_modal", modal)
		return
	}
	a.renderPage(w, r, http.StatusOK, "home", a.builder.Home(lang, site.HomeState{
		Path:      "/",
		CSRFToken: csrf,
		Modal:     &modal,
	}))
}

// submitPricingInterest handles the email field inside the pricing dialog.
func (a *app) submitPricingInterest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	key := strings.TrimSpace(r.PostFormValue("plan"))
	email := strings.TrimSpace(r.PostFormValue("email"))

	plan, err := a.builder.Dictionary().Plan(lang, key)
	if err != nil {
		a.planNotFound(w, r, lang)
		return
	}
	submitErr := a.submit(r, leads.NewPricingInterest(email, plan.Key, plan.Name, lang))
	if submitErr == nil {
		a.track(r, analytics.PricingFormSubmit(plan.Key, email))
	}
	modal, err := a.builder.PricingResult(lang, plan.Key, csrf, email, submitErr)
	if err != nil {
		a.planNotFound(w, r, lang)
		return
	}
	status := http.StatusOK
	if submitErr != nil {
		status = http.StatusUnprocessableEntity
	}

	if isHTMX(r) {
		// the form swaps itself; the dialog stays open until the reset closes it
		a.renderTemplate(w, r, status, "email_form", modal.Form)
		return
	}
	if submitErr == nil {
		http.Redirect(w, r, "/#"+site.AnchorPricing, http.StatusSeeOther)
		return
	}
	a.renderPage(w, r, status, "home", a.builder.Home(lang, site.HomeState{
		Path:      "/",
		CSRFToken: csrf,
		Modal:     &modal,
	}))
}

func (a *app) planNotFound(w http.ResponseWriter, r *http.Request, lang string) {
	if isHTMX(r) {
		http.Error(w, a.bundle.T(lang, "pricing.error.plan"), http.StatusNotFound)
		return
	}
	a.notFound(w, r)
}

// codeModal opens the generated-code dialog.
func (a *app) codeModal(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	if isHTMX(r) {
		a.renderTemplate(w, r, http.StatusOK, "frag_code_modal", a.builder.CodeModal(lang))
		return
	}
	a.renderPage(w, r, http.StatusOK, "home", a.builder.Home(lang, site.HomeState{
		Path:      "/",
		CSRFToken: mw.CSRFToken(r),
		Code:      true,
	}))
}

// collectEvent accepts a browser analytics event.
func (a *app) collectEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := analytics.ParseEvent(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		mw.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.track(r, ev)
	w.WriteHeader(http.StatusNoContent)
}
