package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Manifest is the episode description served at <episode url>.json.
type Manifest struct {
	ReadableProduct ReadableProduct `json:"readableProduct"`
}

type ReadableProduct struct {
	Title         string        `json:"title"`
	Series        Series        `json:"series"`
	PageStructure PageStructure `json:"pageStructure"`
}

type Series struct {
	Title string `json:"title"`
}

type PageStructure struct {
	Pages []Page `json:"pages"`
}

// Page is a manifest page entry. Only entries with Src are images; the rest
// are layout markers such as spreads or link pages.
type Page struct {
	Src string `json:"src,omitempty"`
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PageURLs returns the image URLs in reading order.
func (m *Manifest) PageURLs() []string {
	pages := m.ReadableProduct.PageStructure.Pages
	urls := make([]string, 0, len(pages))
	for _, page := range pages {
		if page.Src == "" {
			continue
		}
		urls = append(urls, page.Src)
	}
	return urls
}

// FolderName is "<series title> - <episode title>" made safe for use as a
// single path element.
func (m *Manifest) FolderName() string {
	return sanitizeFileName(m.ReadableProduct.Series.Title + " - " + m.ReadableProduct.Title)
}

var fileNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_",
)

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// ManifestURL returns the JSON manifest location for an episode page URL.
func ManifestURL(episodeURL string) string {
	u, err := url.Parse(episodeURL)
	if err != nil {
		return episodeURL + ".json"
	}
	if strings.HasSuffix(u.Path, ".json") {
		return episodeURL
	}
	u.Path += ".json"
	u.RawPath = ""
	return u.String()
}

// PageFileName derives an output file name from the basename of a page URL,
// replacing its extension with ext.
func PageFileName(pageURL, ext string) string {
	stem, _ := splitPageName(pageURL)
	return stem + ext
}

type pageName struct {
	stem, ext string
}

// pageNames names every page after its URL basename. Pages whose names
// collide get their 1-based page number as a prefix.
func pageNames(pageURLs []string) []pageName {
	names := make([]pageName, len(pageURLs))
	counts := make(map[string]int, len(pageURLs))
	for i, pageURL := range pageURLs {
		stem, ext := splitPageName(pageURL)
		names[i] = pageName{stem: stem, ext: ext}
		counts[stem]++
	}
	for i := range names {
		if counts[names[i].stem] > 1 {
			names[i].stem = fmt.Sprintf("%03d-%s", i+1, names[i].stem)
		}
	}
	return names
}

// splitPageName returns the basename of the URL path without its extension,
// and the extension itself.
func splitPageName(pageURL string) (stem, ext string) {
	p := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "/" || base == "." {
		base = ""
	}
	ext = path.Ext(base)
	stem = sanitizeFileName(strings.TrimSuffix(base, ext))
	return stem, ext
}
