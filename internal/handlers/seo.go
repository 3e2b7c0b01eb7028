package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cityideas/internal/services"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct {
	ideas   *services.IdeaService
	siteURL string
}

func NewSEOHandler(ideas *services.IdeaService, siteURL string) *SEOHandler {
	return &SEOHandler{ideas: ideas, siteURL: strings.TrimRight(siteURL, "/")}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /profile
Disallow: /login
Disallow: /signup
Disallow: /api/

Sitemap: %s/sitemap.xml
`, h.siteURL)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML lists the static pages and every public idea.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	ideas, err := h.ideas.SitemapIdeas(c.Request.Context(), 5000)
	if err != nil {
		handleError(c, err)
		return
	}

	today := time.Now().Format(time.DateOnly)
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, page := range []struct{ path, freq, prio string }{
		{"/", "daily", "1.0"},
		{"/map", "daily", "0.9"},
		{"/ideas", "hourly", "0.9"},
		{"/implemented", "weekly", "0.8"},
	} {
		set.URLs = append(set.URLs, sitemapURL{h.siteURL + page.path, today, page.freq, page.prio})
	}
	for _, idea := range ideas {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/ideas/%d", h.siteURL, idea.ID),
			LastMod:    idea.CreatedAt.Format(time.DateOnly),
			ChangeFreq: "weekly",
			Priority:   "0.6",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
