package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/dbctx"
	"github.com/yungbote/lms-backend/internal/platform/gcp"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

const (
	certificateWidth  = 1600
	certificateHeight = 1130
)

type CertificateService interface {
	// Issue creates the certificate for (course, student) once. Repeated calls
	// return the existing certificate.
	Issue(ctx context.Context, course *types.Course, studentID uuid.UUID) (*types.Certificate, error)
	ListMine(ctx context.Context) ([]*types.Certificate, error)
	// Artifact returns the PNG for a certificate the caller owns.
	Artifact(ctx context.Context, certID uuid.UUID) ([]byte, error)
	Render(studentName, courseTitle string, issuedAt time.Time) ([]byte, error)
}

type certificateService struct {
	log             *logger.Logger
	certificateRepo repos.CertificateRepo
	courseRepo      repos.CourseRepo
	userRepo        repos.UserRepo
	activities      ActivityService
	// bucketService is nil when object storage is disabled.
	bucketService gcp.BucketService
	font          *truetype.Font
}

func NewCertificateService(
	log *logger.Logger,
	certificateRepo repos.CertificateRepo,
	courseRepo repos.CourseRepo,
	userRepo repos.UserRepo,
	activities ActivityService,
	bucketService gcp.BucketService,
) (CertificateService, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse certificate font: %w", err)
	}
	return &certificateService{
		log:             log.With("service", "CertificateService"),
		certificateRepo: certificateRepo,
		courseRepo:      courseRepo,
		userRepo:        userRepo,
		activities:      activities,
		bucketService:   bucketService,
		font:            f,
	}, nil
}

func artifactPath(certID uuid.UUID) string {
	return fmt.Sprintf("/api/certificates/%s/artifact", certID)
}

func (s *certificateService) Issue(ctx context.Context, course *types.Course, studentID uuid.UUID) (*types.Certificate, error) {
	dbc := dbctx.Of(ctx)
	// The row is usable through the artifact route from the moment it exists.
	id := uuid.New()
	cert := &types.Certificate{
		ID:             id,
		CourseID:       course.ID,
		StudentID:      studentID,
		IssuedAt:       time.Now().UTC(),
		CertificateURL: artifactPath(id),
	}
	created, err := s.certificateRepo.Create(dbc, cert)
	if err != nil {
		return nil, err
	}
	if !created {
		return s.certificateRepo.Get(dbc, course.ID, studentID)
	}

	if s.bucketService != nil {
		if url, key, err := s.upload(ctx, cert, course, studentID); err != nil {
			s.log.Warn("Certificate upload failed; serving on demand", "certificate_id", cert.ID, "error", err)
		} else if err := s.certificateRepo.UpdateURL(dbc, cert.ID, url, key); err != nil {
			s.log.Warn("Record certificate URL failed; serving on demand", "certificate_id", cert.ID, "error", err)
		} else {
			cert.CertificateURL, cert.StorageKey = url, key
		}
	}

	courseID := course.ID
	if err := s.activities.Record(dbc, studentID, &courseID, types.ActivityNotification,
		"Certificate earned", "You completed "+course.Title); err != nil {
		s.log.Warn("Record certificate activity failed", "error", err)
	}
	observability.Current().IncCertificateIssued()
	s.log.Info("Certificate issued", "certificate_id", cert.ID, "course_id", course.ID, "student_id", studentID)
	return cert, nil
}

func (s *certificateService) upload(ctx context.Context, cert *types.Certificate, course *types.Course, studentID uuid.UUID) (string, string, error) {
	name, err := s.studentName(dbctx.Of(ctx), studentID)
	if err != nil {
		return "", "", err
	}
	png, err := s.Render(name, course.Title, cert.IssuedAt)
	if err != nil {
		return "", "", err
	}
	key := fmt.Sprintf("certificates/%s/%s.png", course.ID, cert.ID)
	if err := s.bucketService.UploadFile(dbctx.Of(ctx), gcp.BucketCategoryCertificate, key, bytes.NewReader(png)); err != nil {
		return "", "", err
	}
	return s.bucketService.GetPublicURL(gcp.BucketCategoryCertificate, key), key, nil
}

func (s *certificateService) studentName(dbc dbctx.Context, studentID uuid.UUID) (string, error) {
	users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{studentID})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("student %s not found", studentID)
	}
	return users[0].Name, nil
}

func (s *certificateService) ListMine(ctx context.Context) ([]*types.Certificate, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.certificateRepo.ListByStudent(dbctx.Of(ctx), actor.ID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return out, nil
}

func (s *certificateService) Artifact(ctx context.Context, certID uuid.UUID) ([]byte, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Of(ctx)
	cert, err := s.certificateRepo.GetByID(dbc, certID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	if cert == nil || (cert.StudentID != actor.ID && actor.Role != types.RoleAdmin) {
		return nil, apierr.NotFound("Certificate not found")
	}

	if cert.StorageKey != "" && s.bucketService != nil {
		rc, err := s.bucketService.DownloadFile(ctx, gcp.BucketCategoryCertificate, cert.StorageKey)
		if err == nil {
			defer rc.Close()
			if b, readErr := io.ReadAll(rc); readErr == nil {
				return b, nil
			}
		}
		s.log.Warn("Certificate download failed; rendering", "certificate_id", cert.ID, "error", err)
	}

	name, err := s.studentName(dbc, cert.StudentID)
	if err != nil {
		return nil, apierr.Store(err)
	}
	// The course may have been deleted since issuance.
	title := "Deleted course"
	if courses, err := s.courseRepo.GetByIDs(dbc, []uuid.UUID{cert.CourseID}); err == nil && len(courses) > 0 {
		title = courses[0].Title
	}
	png, err := s.Render(name, title, cert.IssuedAt)
	if err != nil {
		return nil, apierr.Store(err)
	}
	return png, nil
}

func (s *certificateService) face(size float64) font.Face {
	return truetype.NewFace(s.font, &truetype.Options{Size: size})
}

func (s *certificateService) Render(studentName, courseTitle string, issuedAt time.Time) ([]byte, error) {
	const w, h = float64(certificateWidth), float64(certificateHeight)
	dc := gg.NewContext(certificateWidth, certificateHeight)

	dc.SetColor(color.NRGBA{R: 0xFB, G: 0xF8, B: 0xF1, A: 0xFF})
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 0x1F, G: 0x3A, B: 0x5F, A: 0xFF})
	dc.SetLineWidth(14)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(70, 70, w-140, h-140)
	dc.Stroke()

	dc.SetFontFace(s.face(72))
	dc.DrawStringAnchored("Certificate of Completion", w/2, 260, 0.5, 0.5)

	dc.SetColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xFF})
	dc.SetFontFace(s.face(34))
	dc.DrawStringAnchored("This certifies that", w/2, 400, 0.5, 0.5)

	dc.SetColor(color.Black)
	dc.SetFontFace(s.face(64))
	dc.DrawStringAnchored(studentName, w/2, 500, 0.5, 0.5)

	dc.SetColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xFF})
	dc.SetFontFace(s.face(34))
	dc.DrawStringAnchored("has successfully completed", w/2, 610, 0.5, 0.5)

	dc.SetColor(color.NRGBA{R: 0x1F, G: 0x3A, B: 0x5F, A: 0xFF})
	dc.SetFontFace(s.face(48))
	dc.DrawStringWrapped(courseTitle, w/2, 700, 0.5, 0, w-400, 1.3, gg.AlignCenter)

	dc.SetColor(color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF})
	dc.SetFontFace(s.face(28))
	dc.DrawStringAnchored("Issued "+issuedAt.UTC().Format("January 2, 2006"), w/2, h-170, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode certificate png: %w", err)
	}
	return buf.Bytes(), nil
}
