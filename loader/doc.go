// Package loader reads source files into core.Document values.
//
// PDF files are split per page with github.com/ledongthuc/pdf, matching how
// page-oriented loaders number their output: page n of manual.pdf becomes the
// document "manual.pdf#pn" with source, page and total_pages metadata. Plain
// text and Markdown files become a single document named after the file.
package loader
