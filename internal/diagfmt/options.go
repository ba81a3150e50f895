package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	// Max truncates the output, not the Bag. 0 prints everything.
	Max       int
	ShowNotes bool
	// ShowPreview prints the source line under each primary location.
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int
	IncludeNotes bool
}
