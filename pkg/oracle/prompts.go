package oracle

import "fmt"

// Prompt builders for the structured oracle calls made by the core packages.
// Only the inputs and outputs of these calls are contractual; the wording is
// owned here so it can be tuned without touching the state machine.

// SketchPrompt asks for complete sketch source for a natural-language request.
func SketchPrompt(request, board string) string {
	return fmt.Sprintf(
		"Write Arduino C++ code for %s for this microcontroller: '%s'. "+
			"Include all required libraries and header files. "+
			"Output code only, no comments or code fences. "+
			"Only include what the request asks.",
		request, board)
}

// LibraryListPrompt asks which libraries the given source requires.
// The response is expected as one library name per line and is parsed
// with [ParseLibraryList].
func LibraryListPrompt(code, board string) string {
	return fmt.Sprintf(
		"List all the Arduino library names (as in the Arduino Library Manager) "+
			"required to compile code for the %s microcontroller. "+
			"List only names, one per line, no other text.\nCODE:\n%s",
		board, code)
}

// RepoHomepagePrompt asks for a library's canonical repository homepage URL.
// Explicitly not an archive link; the reply is run through the URL extractor.
func RepoHomepagePrompt(library, board string) string {
	return fmt.Sprintf(
		"You are an expert on Arduino libraries and GitHub repositories.\n"+
			"For the microcontroller library '%s' supporting the board '%s':\n"+
			"1. Provide ONLY the official GitHub (or equivalent) repository homepage URL of the library.\n"+
			"2. Do NOT provide ZIP download links.\n"+
			"3. Do NOT include explanations or markdown formatting.\n"+
			"Return ONLY the URL as plain text.",
		library, board)
}

// FixPrompt asks for a corrected version of code that failed to compile.
func FixPrompt(compileOutput, code string) string {
	return fmt.Sprintf(
		"I encountered these compiler errors for the following sketch. "+
			"Rewrite ONLY the corrected code (no comments, no code fences), fixing the issues. "+
			"Do not change features, just fix errors.\n"+
			"Compiler errors:\n%s\nCode:\n%s\n",
		compileOutput, code)
}

// WiringPrompt asks for a pin-by-pin wiring table for the given sketch.
func WiringPrompt(code, board string) string {
	return fmt.Sprintf(
		"You are an Arduino hardware expert. The following is Arduino C++ code "+
			"written for the microcontroller '%s'.\n"+
			"Analyze the code and provide a complete pin-by-pin wiring table for every "+
			"hardware component and every board pin the code uses.\n"+
			"Format each connection as one line:\n"+
			"[Board Pin] | [Component] | [Component Pin/Terminal] | [Purpose/Signal]\n"+
			"Only list wires essential for this code to function.\n"+
			"BOARD: %s\nCODE:\n%s",
		board, board, code)
}
