package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/domain/reports"
	"github.com/Gwonyeong/doll-backend/internal/mailer"
	"github.com/Gwonyeong/doll-backend/internal/notifications"
)

const backgroundTimeout = 30 * time.Second

// background runs fn outside the request with its own deadline. Shutdown
// waits for it.
func (app *application) background(fn func(ctx context.Context)) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", fmt.Sprint(err))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (app *application) notifySlack(text string) {
	if app.slack == nil {
		return
	}
	app.background(func(ctx context.Context) {
		if err := app.slack.Notify(ctx, text); err != nil {
			app.logger.Warnw("slack notify failed", "error", err)
		}
	})
}

func (app *application) reportLocation() *time.Location {
	loc, err := time.LoadLocation(app.config.report.location)
	if err != nil {
		app.logger.Warnw("unknown report timezone, using KST", "timezone", app.config.report.location, "error", err)
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// startBackgroundJobs starts the daily report loop. It stops when ctx is
// cancelled.
func (app *application) startBackgroundJobs(ctx context.Context) {
	hour := app.config.report.hour
	if hour < 0 || hour > 23 {
		app.logger.Warnw("daily report disabled", "hour", hour)
		return
	}

	loc := app.reportLocation()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()

		for {
			next := reports.NextRun(time.Now(), hour, loc)
			timer := time.NewTimer(time.Until(next))

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if err := app.sendDailyReport(ctx, next, loc); err != nil {
					app.logger.Errorf("Error sending daily report: %v", err)
				} else {
					app.logger.Infof("Daily report sent at %s", time.Now().In(loc).Format(time.RFC1123))
				}
			}
		}
	}()
}

// sendDailyReport summarises the day before at and posts it to Slack and,
// when configured, by email.
func (app *application) sendDailyReport(ctx context.Context, at time.Time, loc *time.Location) error {
	from, to := reports.PreviousDay(at, loc)

	qctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()

	summary, err := app.store.Reports.Summarize(qctx, from, to)
	if err != nil {
		return err
	}

	if app.slack != nil {
		if err := app.slack.Notify(qctx, notifications.DailyReportMessage(*summary)); err != nil {
			app.logger.Warnw("slack daily report failed", "error", err)
		}
	}

	if app.mailer != nil && app.config.report.email != "" {
		vars := struct {
			Name    string
			Date    string
			Summary reports.Summary
		}{
			Name:    "Doll Map team",
			Date:    from.Format("2006-01-02"),
			Summary: *summary,
		}
		status, err := app.mailer.Send(mailer.DailyReportTemplate, vars.Name, app.config.report.email, vars)
		if err != nil {
			return fmt.Errorf("email daily report: %w", err)
		}
		app.logger.Infow("Email sent", "status code", status)
	}

	return nil
}

// dailyReportHandler godoc
//
//	@Summary		Daily report
//	@Description	Summary of one calendar day (Asia/Seoul). Defaults to yesterday.
//	@Tags			admin
//	@Produce		json
//	@Param			date	query		string	false	"Day as YYYY-MM-DD"
//	@Success		200		{object}	reports.Summary
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		BasicAuth
//	@Router			/admin/reports/daily [get]
func (app *application) dailyReportHandler(w http.ResponseWriter, r *http.Request) {
	loc := app.reportLocation()

	at := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		day, err := time.ParseInLocation("2006-01-02", d, loc)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("date must be YYYY-MM-DD"))
			return
		}
		at = day.AddDate(0, 0, 1)
	}

	from, to := reports.PreviousDay(at, loc)
	summary, err := app.store.Reports.Summarize(r.Context(), from, to)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}
