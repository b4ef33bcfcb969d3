package domain

// RawTranscript is one conversation unit as discovered from an input:
// a spreadsheet row, a plain text file (or one segment of it), or the
// aggregated pages of a PDF.
type RawTranscript struct {
	// ConversationID is a stable identifier derived from the input,
	// e.g. "tickets_row3" for the third row of tickets.csv.
	ConversationID string

	// Text is the raw extracted text before normalisation.
	Text string

	// SourcePath is the file the transcript was read from.
	SourcePath string
}
