package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
)

var (
	ErrNotLoggedIn = errors.New("not signed in")
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	ErrEmptyTitle  = errors.New("title must not be empty")
	ErrUnknownMode = errors.New("mode must be offline, online or auto")
)

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) printTrips(trips []models.Trip) {
	if len(trips) == 0 {
		fmt.Fprintln(a.out, "No trips")
		return
	}
	for _, t := range trips {
		marker := ""
		if t.IsLocal() {
			marker = " *"
		}
		fmt.Fprintf(a.out, "%s  %-24s %-24s %s - %s%s\n", t.ID, t.Title, t.Destination, t.StartDate, t.EndDate, marker)
	}
}

// List prints the trips of the signed-in user. Trips still waiting to be
// synced are marked with an asterisk.
func (a *App) List(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.printTrips(a.trips.GetTrips(ctx))
	return nil
}

// Upcoming prints the trips that have not started yet, soonest first.
func (a *App) Upcoming(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.printTrips(a.trips.GetUpcomingTrips(ctx))
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	s := a.trips.GetUserStats(ctx)
	fmt.Fprintf(a.out, "Trips: %d\nPhotos: %d\nCountries: %d\n", s.Trips, s.Photos, s.Countries)
	return nil
}

func (a *App) readDate(prompt string) (string, error) {
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if _, ok := models.ParseDate(s); !ok {
		return "", ErrInvalidDate
	}
	return s, nil
}

// Add prompts for the trip fields and creates the trip. An optional image
// is uploaded first; when the upload fails the trip is created without it.
func (a *App) Add(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	if title == "" {
		return ErrEmptyTitle
	}
	destination, err := getSimpleText(a.reader, "Destination (city, country)", a.out)
	if err != nil {
		return err
	}
	start, err := a.readDate("Start date (YYYY-MM-DD)")
	if err != nil {
		return err
	}
	end, err := a.readDate("End date (YYYY-MM-DD)")
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	imagePath, err := getSimpleText(a.reader, "Image path (empty to skip)", a.out)
	if err != nil {
		return err
	}

	trip := models.Trip{
		Title:       title,
		Destination: destination,
		StartDate:   start,
		EndDate:     end,
		Description: description,
		Photos:      []string{},
	}

	if imagePath != "" {
		url, err := a.trips.UploadImage(ctx, imagePath)
		if err != nil {
			fmt.Fprintf(a.out, "Image not uploaded: %v\n", err)
		} else {
			trip.Image = url
			trip.Photos = append(trip.Photos, url)
		}
	}

	created, err := a.trips.CreateTrip(ctx, trip)
	if err != nil {
		return err
	}

	if created.IsLocal() {
		fmt.Fprintf(a.out, "Saved offline as %s, will sync when online\n", created.ID)
	} else {
		fmt.Fprintf(a.out, "Created %s\n", created.ID)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.trips.DeleteTrip(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

// Upload sends a local image to the server and prints its remote URL.
func (a *App) Upload(ctx context.Context, path string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	url, err := a.trips.UploadImage(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, url)
	return nil
}

// ShowStatus prints the connectivity banner: mode, queued changes and the
// outcome of the last sync.
func (a *App) ShowStatus(ctx context.Context) error {
	mode := modeOf(a.conn.IsOnline())
	if a.conn.Pinned() {
		fmt.Fprintf(a.out, "Mode: %s (forced)\n", mode)
	} else {
		fmt.Fprintf(a.out, "Mode: %s\n", mode)
	}

	s := a.trips.Status(ctx)
	fmt.Fprintf(a.out, "Pending changes: %d\n", s.PendingCount)
	if s.IsSyncing {
		fmt.Fprintln(a.out, "Sync in progress")
	}
	if !s.LastSyncAt.IsZero() {
		fmt.Fprintf(a.out, "Last sync: %s\n", s.LastSyncAt.Local().Format("2006-01-02 15:04:05"))
	}
	if s.LastError != "" {
		fmt.Fprintf(a.out, "Last error: %s\n", s.LastError)
	}
	if s.ReconciledIDs > 0 {
		fmt.Fprintf(a.out, "Reconciled ids: %d\n", s.ReconciledIDs)
	}
	return nil
}

// Sync replays the queued changes now.
func (a *App) Sync(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	report := a.trips.SyncNow(ctx)
	if report.Err != nil {
		return fmt.Errorf("sync stopped after %d change(s), %d remaining: %w", report.Delivered, report.Remaining, report.Err)
	}
	if !report.Started {
		fmt.Fprintln(a.out, "Sync already in progress")
		return nil
	}
	// the drain_finished event reports delivered changes
	if report.Delivered == 0 {
		fmt.Fprintln(a.out, "Nothing to sync")
	}
	return nil
}

// SetConnectivity forces the client offline or online, or hands the state
// back to the connectivity monitor ("auto").
func (a *App) SetConnectivity(ctx context.Context, mode string) error {
	switch strings.ToLower(mode) {
	case "offline":
		a.conn.Pin(false)
	case "online":
		a.conn.Pin(true)
	case "auto":
		a.conn.Unpin()
	default:
		return ErrUnknownMode
	}
	a.log.Debug(ctx, "connectivity override", "mode", mode)
	a.setMode(modeOf(a.conn.IsOnline()))
	return nil
}
