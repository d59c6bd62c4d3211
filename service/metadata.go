package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/utils"
)

const googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// ErrNoVolume means the lookup service knows no book with the ISBN.
var ErrNoVolume = errors.New("no volume found")

// googleBooksVolumesResp is the response from GET /volumes?q=isbn:...
type googleBooksVolumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Categories          []string `json:"categories"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// BookMetadata is the catalog data found for an ISBN.
type BookMetadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
}

// Edit turns the lookup into the fields of an edit request. Empty values are
// left out so they do not overwrite what the catalog already has.
func (m BookMetadata) Edit() circulation.Metadata {
	var e circulation.Metadata
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	e.Title = set(m.Title)
	e.Author = set(m.Author)
	e.ISBN = set(m.ISBN)
	e.Category = set(m.Category)
	return e
}

// MetadataClient looks up books on the Google Books volumes API.
type MetadataClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewMetadataClient() *MetadataClient {
	// short timeout so a hung lookup does not hold the request
	return &MetadataClient{BaseURL: googleBooksBase, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

// Lookup fetches metadata for isbn. isbn must be a valid ISBN-10 or ISBN-13.
func (c *MetadataClient) Lookup(ctx context.Context, isbn string) (*BookMetadata, error) {
	clean, ok := utils.NormalizeISBN(isbn)
	if !ok {
		return nil, fmt.Errorf("%w: isbn must have 10 or 13 digits", circulation.ErrInvalidRequest)
	}
	q := url.Values{}
	q.Set("q", "isbn:"+clean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode google books: %w", err)
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("%w for isbn %s", ErrNoVolume, clean)
	}
	vi := data.Items[0].VolumeInfo
	meta := &BookMetadata{
		Title:  strings.TrimSpace(vi.Title),
		Author: strings.Join(vi.Authors, ", "),
		ISBN:   clean,
	}
	if sub := strings.TrimSpace(vi.Subtitle); meta.Title != "" && sub != "" {
		meta.Title = meta.Title + ": " + sub
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			if v, ok := utils.NormalizeISBN(id.Identifier); ok {
				meta.ISBN = v
			}
			break
		}
	}
	if len(vi.Categories) > 0 {
		meta.Category = vi.Categories[0]
	}
	return meta, nil
}
