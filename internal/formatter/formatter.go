// package formatter renders playlist exports as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts the format names used on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// ExportToCSV writes one row per track in playlist order.
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album", "Genre", "Duration", "File URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range export.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(track.ID),
			track.Title,
			track.ArtistName,
			track.AlbumName,
			track.Genre,
			strconv.Itoa(track.Duration),
			track.FileURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a README-style page, with a cover image when coverFile is set.
func ExportToMarkdown(export *models.PlaylistExport, coverFile string) ([]byte, error) {
	var buf bytes.Buffer
	pl := export.Playlist

	fmt.Fprintf(&buf, "# %s\n\n", pl.Name)
	if coverFile != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", coverFile)
	}
	if pl.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", pl.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n", shared.FormatDuration(export.TotalDuration()))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", shared.VisibilityString(pl.IsPublic))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		album := ""
		if track.AlbumName != "" {
			album = fmt.Sprintf(" (%s)", track.AlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, trackArtist(track), track.Title, album, shared.FormatDuration(track.Duration))
	}
	return buf.Bytes(), nil
}

// ExportToText renders a numbered track list.
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, trackArtist(track), track.Title)
	}
	return buf.Bytes(), nil
}

// jsonExport is the on-disk JSON shape: the playlist with its ordered tracks inline.
type jsonExport struct {
	Playlist models.Playlist `json:"playlist"`
	Tracks   []models.Track  `json:"tracks"`
	Exported time.Time       `json:"exported_at"`
}

// ExportToJSON renders the playlist and its tracks as indented JSON.
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	tracks := export.Tracks
	if tracks == nil {
		tracks = []models.Track{}
	}
	return json.MarshalIndent(jsonExport{Playlist: export.Playlist, Tracks: tracks, Exported: time.Now().UTC()}, "", "  ")
}

func trackArtist(t models.Track) string {
	if t.ArtistName != "" {
		return t.ArtistName
	}
	return "Unknown artist"
}

// DownloadImage fetches url with client (http.DefaultClient when nil) and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// WriteOptions tunes [Write].
type WriteOptions struct {
	// Dir receives the export files. Defaults to the current directory.
	Dir string
	// Cover downloads Playlist.CoverURL next to a Markdown export.
	Cover      bool
	HTTPClient *http.Client
	// Warn receives non-fatal problems such as a failed cover download.
	Warn func(msg string, kv ...any)
}

// Write renders export in format under opts.Dir and returns the files created.
//
// Files are named after the playlist id: {id}.json, {id}_tracks.csv, {id}_tracks.txt
// or {id}/README.md (plus {id}/cover.jpg when requested).
func Write(ctx context.Context, export *models.PlaylistExport, format Format, opts WriteOptions) ([]string, error) {
	if export == nil || export.Playlist.ID == "" {
		return nil, fmt.Errorf("%w: export has no playlist id", shared.ErrInvalidInput)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Warn == nil {
		opts.Warn = func(string, ...any) {}
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(opts.Dir, export.Playlist.ID)
	switch format {
	case FormatCSV:
		return writeFile(base+"_tracks.csv", export, ExportToCSV)
	case FormatText:
		return writeFile(base+"_tracks.txt", export, ExportToText)
	case FormatMarkdown:
		return writeMarkdown(ctx, export, base, opts)
	case FormatJSON:
		return writeFile(base+".json", export, ExportToJSON)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}

func writeFile(path string, export *models.PlaylistExport, render func(*models.PlaylistExport) ([]byte, error)) ([]string, error) {
	data, err := render(export)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

func writeMarkdown(ctx context.Context, export *models.PlaylistExport, dir string, opts WriteOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var files []string
	cover := ""
	if opts.Cover && export.Playlist.CoverURL != "" {
		data, err := DownloadImage(ctx, opts.HTTPClient, export.Playlist.CoverURL)
		if err != nil {
			opts.Warn("failed to download cover image", "error", err)
		} else if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), data, 0644); err != nil {
			opts.Warn("failed to save cover image", "error", err)
		} else {
			cover = "cover.jpg"
			files = append(files, filepath.Join(dir, cover))
		}
	}

	data, err := ExportToMarkdown(export, cover)
	if err != nil {
		return nil, err
	}
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return append(files, readme), nil
}

// ManifestEntry describes one playlist in a bulk export.
type ManifestEntry struct {
	PlaylistID string   `json:"playlist_id"`
	Name       string   `json:"name"`
	Tracks     int      `json:"tracks"`
	Files      []string `json:"files,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	Format          Format          `json:"format"`
	OutputDirectory string          `json:"output_directory"`
	Total           int             `json:"total"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	Entries         []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
