package tui

// opDoneMsg reports that a coordinator call finished. The top-level
// model re-reads the coordinator stage and switches the view to match;
// err is what the operator gets told about.
type opDoneMsg struct {
	err error
}

// downloadDoneMsg reports the result of saving the rendered report.
type downloadDoneMsg struct {
	path string
	err  error
}
