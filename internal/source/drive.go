package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveService wraps the Google Drive API for listing and downloading the
// shared source files (sheet exports and ops uploads).
type DriveService struct {
	srv *drive.Service
}

func NewDriveService(credentialsJSON string) (*DriveService, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	client := config.Client(context.Background())

	srv, err := drive.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %w", err)
	}

	return &DriveService{srv: srv}, nil
}

// DriveFile is the metadata subset the source-admin endpoints expose.
type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// ListFiles lists the files in a folder; an empty folder ID means the root.
func (s *DriveService) ListFiles(folderID string) ([]*DriveFile, error) {
	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list drive files: %w", err)
	}

	files := make([]*DriveFile, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, &DriveFile{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}

	return files, nil
}

// DownloadFile streams a file's content into w.
func (s *DriveService) DownloadFile(fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Download()
	if err != nil {
		return fmt.Errorf("unable to download drive file: %w", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// FetchRecords downloads a CSV file from Drive and parses it into records.
func (s *DriveService) FetchRecords(ctx context.Context, fileID string) ([][]string, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.DownloadFile(fileID, pw))
	}()
	return parseCSV(pr)
}

// RecordsByName resolves folderPath, finds the named file inside it, and
// parses it into records. Report sources configured as drive: references
// read through here instead of a sheet export URL.
func (s *DriveService) RecordsByName(ctx context.Context, folderPath, name string) ([][]string, error) {
	folderID, err := s.FindFolderByPath(folderPath)
	if err != nil {
		return nil, err
	}

	files, err := s.ListFiles(folderID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Name == name {
			return s.FetchRecords(ctx, f.ID)
		}
	}

	return nil, fmt.Errorf("file %q not found in drive folder %q", name, folderPath)
}

// ParseDriveRef splits a "drive:<file name>" source reference. Sources are
// normally sheet export URLs; a drive: reference names a file inside the
// configured Drive folder instead.
func ParseDriveRef(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, "drive:")
	if !ok {
		return "", false
	}
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", false
	}
	return name, true
}

// FindFolderByPath resolves a /-separated folder path to a folder ID.
func (s *DriveService) FindFolderByPath(path string) (string, error) {
	if path == "" {
		return "root", nil
	}

	currentID := "root"
	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
				currentID, folder)).
			Fields("files(id, name)").
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}
