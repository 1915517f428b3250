package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
	"github.com/noah-isme/exam-scheduler/pkg/export"
)

type arrangementListerStub struct {
	items []models.ExamArrangementDetail
	err   error
}

func (s arrangementListerStub) ListArrangements(context.Context) ([]models.ExamArrangementDetail, error) {
	return s.items, s.err
}

type pdfCapture struct {
	data  export.Dataset
	title string
}

func (p *pdfCapture) Render(data export.Dataset, title, _ string) ([]byte, error) {
	p.data = data
	p.title = title
	return []byte("%PDF-stub"), nil
}

func sampleDetails() []models.ExamArrangementDetail {
	return []models.ExamArrangementDetail{
		{
			ExamArrangement: models.ExamArrangement{
				ID: "arr-1", CourseID: "c1", RoomID: "R1", ExamDate: monday, ExamTime: "08:00-10:00",
				ClassSection: "A", StudentCount: 30, SessionNo: 1, SessionTotal: 2,
			},
			CourseTitle: "Calculus", Teacher: "T1", RoomName: "Hall 1",
		},
	}
}

func newExportFixture(lister arrangementListerStub, pdf pdfRenderer) *ExportService {
	svc := NewExportService(lister, nil, pdf, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceCSVDefault(t *testing.T) {
	svc := newExportFixture(arrangementListerStub{items: sampleDetails()}, nil)

	file, err := svc.Export(context.Background(), dto.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "exam_arrangements_20250501_093000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "arrangement_id,course_id,course_title,teacher"))
	assert.Contains(t, lines[1], "arr-1,c1,Calculus,T1,A")
	assert.True(t, strings.HasSuffix(lines[1], ",30,1/2"))
}

func TestExportServicePDF(t *testing.T) {
	capture := &pdfCapture{}
	svc := newExportFixture(arrangementListerStub{items: sampleDetails()}, capture)

	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.Equal(t, "Exam Arrangements", capture.title)
	require.Len(t, capture.data.Rows, 1)
	assert.Equal(t, "Hall 1", capture.data.Rows[0]["Room"])
	assert.Equal(t, "1/2", capture.data.Rows[0]["Session"])
}

func TestExportServiceRealPDF(t *testing.T) {
	svc := newExportFixture(arrangementListerStub{items: sampleDetails()}, nil)

	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: ExportFormatPDF})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportServiceErrors(t *testing.T) {
	svc := newExportFixture(arrangementListerStub{}, nil)
	_, err := svc.Export(context.Background(), dto.ExportQuery{Format: "xlsx"})
	requireAppError(t, err, appErrors.ErrValidation)

	failing := newExportFixture(arrangementListerStub{err: appErrors.Clone(appErrors.ErrInternal, "db down")}, nil)
	_, err = failing.Export(context.Background(), dto.ExportQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestExportServiceEmptyKeepsHeader(t *testing.T) {
	svc := newExportFixture(arrangementListerStub{items: []models.ExamArrangementDetail{}}, nil)

	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, 1, len(strings.Split(strings.TrimSpace(string(file.Body)), "\n")))
}
