package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/report"
)

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "intake",
	})
}

// handleProcessAudio accepts the visit audio with its setup metadata,
// transcribes it and registers the visit.
func (s *Server) handleProcessAudio(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio_file is required"})
		return
	}
	defer file.Close()

	if header.Size > s.config.MaxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	triage, err := clinical.ParseTriageCode(c.PostForm("triage_code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transcript, err := s.transcriber.Transcribe(c.Request.Context(), file)
	if err != nil {
		s.logger.Error("transcription failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed: " + err.Error()})
		return
	}

	visit := s.store.Create(
		transcript,
		c.PostForm("symptoms"),
		triage,
		c.PostForm("triage_notes"),
		c.PostForm("patient_id"),
	)

	s.logger.Info("visit transcribed",
		"transcript_id", visit.TranscriptID,
		"audio_bytes", header.Size,
		"transcript_chars", len(transcript),
	)

	c.JSON(http.StatusOK, gin.H{
		"transcript_id": visit.TranscriptID,
		"encounter_id":  visit.EncounterID,
		"transcript":    visit.Transcript,
	})
}

type extractRequest struct {
	TranscriptID   string `json:"transcript_id"`
	TranscriptText string `json:"transcript_text"`
}

// handleExtract runs clinical-data extraction over the submitted
// transcript text. A degraded extraction still returns 200; the payload
// carries the fallback flag and warnings.
func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.TranscriptText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transcript_text is required"})
		return
	}

	visit, err := s.store.Get(req.TranscriptID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no transcript with id " + req.TranscriptID})
		return
	}

	result, err := s.extractor.Extract(c.Request.Context(), req.TranscriptText)
	if err != nil {
		s.logger.Error("extraction failed", "transcript_id", req.TranscriptID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "extraction failed: " + err.Error()})
		return
	}

	// The code chosen at intake fills a blank extracted code, never the
	// reverse.
	merged := clinical.MergeExtracted(result.Record, visit.TriageCode)

	if err := s.store.SetExtraction(req.TranscriptID, req.TranscriptText, merged); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if result.Fallback {
		s.logger.Warn("extraction degraded", "transcript_id", req.TranscriptID, "warnings", len(result.Warnings))
	}

	c.JSON(http.StatusOK, gin.H{
		"extracted_data":    merged,
		"validation_errors": result.ValidationErrors,
		"fallback":          result.Fallback,
		"warnings":          result.Warnings,
	})
}

type updateRequest struct {
	ClinicalData clinical.Record `json:"clinical_data"`
}

// handleUpdateClinicalData persists the operator's reviewed record.
func (s *Server) handleUpdateClinicalData(c *gin.Context) {
	transcriptID := c.Param("id")

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := clinical.ParseTriageCode(string(req.ClinicalData.Assessment.TriageCode)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.UpdateRecord(transcriptID, req.ClinicalData); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrVisitNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("clinical data updated", "transcript_id", transcriptID)
	c.JSON(http.StatusOK, gin.H{"message": "clinical data updated"})
}

// handleGenerateReport renders the visit report from the persisted
// record.
func (s *Server) handleGenerateReport(c *gin.Context) {
	transcriptID := c.Param("id")

	visit, err := s.store.Get(transcriptID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if visit.Record == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no clinical data extracted for this visit"})
		return
	}

	pdf, err := s.renderer.Render(*visit.Record, report.Meta{
		TranscriptID: visit.TranscriptID,
		EncounterID:  visit.EncounterID,
		Transcript:   visit.Transcript,
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Error("report rendering failed", "transcript_id", transcriptID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report rendering failed"})
		return
	}

	saved, err := s.store.SaveReport(transcriptID, pdf)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("report generated",
		"transcript_id", transcriptID,
		"report_id", saved.ReportID,
		"pdf_bytes", len(pdf),
	)

	c.JSON(http.StatusOK, gin.H{
		"report_id":    saved.ReportID,
		"download_url": "/api/reports/" + saved.ReportID + "/download",
	})
}

// handleDownloadReport serves the rendered PDF.
func (s *Server) handleDownloadReport(c *gin.Context) {
	reportID := c.Param("id")

	visit, err := s.store.GetByReportID(reportID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="visit-report-`+reportID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", visit.ReportPDF)
}
