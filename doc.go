// Package nebulaboard is the local core of a personal productivity dashboard.
//
// It keeps notes, tasks and rich-text notes in a file-backed record store
// with secondary indexes, holds the authenticated session in a persisted
// profile (cookies and local storage), talks to the auth API through an HTTP
// client that injects the bearer token and redirects to login on 401, and
// tracks navigation and the side menu.
//
// Usage:
//
//	app, err := nebulaboard.Open(ctx,
//		nebulaboard.WithProfileDir("/path/to/profile"),
//		nebulaboard.WithAPIBaseURL("https://api.example.com"),
//	)
//	if err != nil {
//		return err
//	}
//
//	id, err := app.Notes.AddNote(ctx, notes.NoteInput{Title: "Groceries"})
//	pinned, err := app.Notes.TogglePin(ctx, id)
//
//	err = app.Session.Login(ctx, auth.LoginRequest{Email: "me@example.com", Password: "secret"})
//
// Runs from `go run` or `go test` are sandboxed under the system temp
// directory unless WithDevSafety(false) is given.
package nebulaboard
