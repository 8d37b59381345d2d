package session

import (
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/model"
)

// UploadFile is one user-picked file to stage. Open is called once during
// staging; a failing reader marks this file only, the rest of the batch
// still goes through.
type UploadFile struct {
	Filename string
	MimeType string
	Size     int64
	ModTime  time.Time
	Open     func() (io.ReadCloser, error)
}

// FileStore holds the staged attachments for the current session, keyed by
// test_question_detail_id. Uploads dedup on filename+size per question;
// captured drawings always append. Every change reports through the dirty
// callback so the session can mark itself unsaved.
type FileStore struct {
	mu       sync.Mutex
	files    map[string][]model.Attachment
	failures map[string]error
	onDirty  func()
}

func NewFileStore(onDirty func()) *FileStore {
	return &FileStore{
		files:    make(map[string][]model.Attachment),
		failures: make(map[string]error),
		onDirty:  onDirty,
	}
}

func failureKey(detailID, filename string, modTime time.Time) string {
	return fmt.Sprintf("%s/%s/%d", detailID, filename, modTime.UnixMilli())
}

// AddUpload stages a batch of files for a question. Duplicates (same
// filename and size already staged for that question) are skipped, so a
// staged file is never silently overwritten by a normal upload.
func (s *FileStore) AddUpload(detailID string, batch []UploadFile) {
	if detailID == "" {
		log.Warn().Msg("filestore: AddUpload skipped, detail id is missing")
		return
	}
	if len(batch) == 0 {
		return
	}

	s.notifyDirty()

	for _, f := range batch {
		s.mu.Lock()
		dup := false
		for _, staged := range s.files[detailID] {
			if staged.Filename == f.Filename && staged.Size == f.Size {
				dup = true
				break
			}
		}
		s.mu.Unlock()
		if dup {
			log.Debug().Str("filename", f.Filename).Str("detail_id", detailID).
				Msg("filestore: duplicate upload skipped")
			continue
		}

		data, err := encodeUpload(f)
		if err != nil {
			s.mu.Lock()
			s.failures[failureKey(detailID, f.Filename, f.ModTime)] = err
			s.mu.Unlock()
			log.Error().Err(err).Str("filename", f.Filename).Str("detail_id", detailID).
				Msg("filestore: staging file failed")
			continue
		}

		s.mu.Lock()
		s.files[detailID] = append(s.files[detailID], model.Attachment{
			Kind:       model.AttachmentUpload,
			Filename:   f.Filename,
			MimeType:   f.MimeType,
			Size:       f.Size,
			Base64Data: data,
		})
		s.mu.Unlock()
	}
}

func encodeUpload(f UploadFile) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("no reader for %s", f.Filename)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Filename, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Filename, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// AddCapture stages a captured drawing. Captures bypass dedup: every
// capture is appended even when its content matches an existing one.
func (s *FileStore) AddCapture(detailID string, capture model.Attachment) {
	if detailID == "" {
		log.Warn().Msg("filestore: AddCapture skipped, detail id is missing")
		return
	}
	capture.Kind = model.AttachmentCapture
	if capture.Size == 0 {
		capture.Size = int64(len(capture.Base64Data)) * 3 / 4
	}

	s.notifyDirty()

	s.mu.Lock()
	s.files[detailID] = append(s.files[detailID], capture)
	s.mu.Unlock()
}

// Remove drops the staged file matching filename. When the question's list
// empties its key is deleted entirely, leaving no empty-array residue.
func (s *FileStore) Remove(detailID, filename string) {
	if detailID == "" || filename == "" {
		return
	}
	s.mu.Lock()
	staged, ok := s.files[detailID]
	if !ok {
		s.mu.Unlock()
		return
	}
	kept := staged[:0]
	for _, f := range staged {
		if f.Filename != filename {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		delete(s.files, detailID)
	} else {
		s.files[detailID] = kept
	}
	s.mu.Unlock()

	s.notifyDirty()
}

// InitializeFromSaved restores essay attachments from a resumed attempt's
// saved answers. Non-essay questions never carry files.
func (s *FileStore) InitializeFromSaved(saved map[string]model.SavedAnswer, questions []model.Question) {
	byDetailID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byDetailID[q.DetailID] = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string][]model.Attachment)
	s.failures = make(map[string]error)

	for detailID, answer := range saved {
		q, ok := byDetailID[detailID]
		if !ok || !model.IsEssayType(q.Type) {
			continue
		}
		for _, img := range answer.Base64Images {
			s.files[detailID] = append(s.files[detailID], model.Attachment{
				Kind:       model.AttachmentUpload,
				Filename:   img.Filename,
				MimeType:   img.MimeType,
				Size:       int64(len(img.Data)) * 3 / 4,
				Base64Data: img.Data,
			})
		}
	}
}

// Reset clears all staged files and failure markers for a fresh attempt.
func (s *FileStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string][]model.Attachment)
	s.failures = make(map[string]error)
}

// Files returns a copy of the staged attachments for one question.
func (s *FileStore) Files(detailID string) []model.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.files[detailID]
	out := make([]model.Attachment, len(staged))
	copy(out, staged)
	return out
}

// Snapshot returns a copy of the whole staged-file map.
func (s *FileStore) Snapshot() map[string][]model.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]model.Attachment, len(s.files))
	for k, v := range s.files {
		files := make([]model.Attachment, len(v))
		copy(files, v)
		out[k] = files
	}
	return out
}

// Failure reports the staging error recorded for a file, if any.
func (s *FileStore) Failure(detailID, filename string, modTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[failureKey(detailID, filename, modTime)]
}

func (s *FileStore) notifyDirty() {
	if s.onDirty != nil {
		s.onDirty()
	}
}
