package ingest

// These separator presets mirror the content-type-aware splitting the
// corpus's document-ingestion handler used: Markdown headers get their own
// boundary set, and the code-oriented presets are kept even though the
// product-documentation corpus this pipeline targets is overwhelmingly
// Markdown and plain text, in case a future doc root adds code samples.
var (
	defaultSeparators  = []string{"\n\n", "\n", " ", ""}
	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
	pythonSeparators = []string{"\nclass ", "\ndef ", "\n\t", "\n", " "}
	cStyleSeparators  = []string{
		"\nfunction ", "\nclass ", "\ninterface ",
		"\npublic ", "\nprivate ", "\nprotected ",
		"\nfunc", "\ntype",
		"\n\n", "\n", " ", "",
	}
)
