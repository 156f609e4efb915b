package driven

import "context"

// CommandRunner executes an external program and returns its stdout.
// Adapters that shell out accept one so tests can substitute the process.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// PDFToolkit reads PDF structure and renders pages.
type PDFToolkit interface {
	// PageCount opens the document and returns its number of pages.
	// An error here means the document cannot be read at all.
	PageCount(ctx context.Context, path string) (int, error)

	// ExtractText returns the embedded text of one 1-based page.
	ExtractText(ctx context.Context, path string, page int) (string, error)

	// RenderPage rasterises one 1-based page to a JPEG at outPath.
	RenderPage(ctx context.Context, path string, page int, outPath string) error
}

// OCREngine recognises text in a page image.
type OCREngine interface {
	// Recognise returns the text found in the image at imagePath.
	Recognise(ctx context.Context, imagePath string) (string, error)
}
