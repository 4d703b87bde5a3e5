// Package markdown turns raw source files into parsed documents: it decodes
// metadata blocks (YAML, TOML or JSON), locates excerpt markers, renders
// Markdown bodies with goldmark and discovers sources on an fs.FS.
package markdown
