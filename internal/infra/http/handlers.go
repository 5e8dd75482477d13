package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"tecpd/internal/domain"
	"tecpd/internal/usecase"

	"github.com/gin-gonic/gin"
)

type issueRequest struct {
	CodeRef    string                    `json:"code_ref"`
	Input      string                    `json:"input"`
	Output     string                    `json:"output"`
	PolicyIDs  []string                  `json:"policy_ids"`
	Extensions *domain.ReceiptExtensions `json:"extensions,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIssueReceipt(c *gin.Context) {
	if !s.enforceRateLimit(c, routeReceiptsIssue) {
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	input, err := base64.StdEncoding.DecodeString(req.Input)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "input must be base64")
		return
	}
	output, err := base64.StdEncoding.DecodeString(req.Output)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "output must be base64")
		return
	}

	receipt, err := s.create.Execute(c.Request.Context(), usecase.CreateReceiptRequest{
		CodeRef:    req.CodeRef,
		InputData:  input,
		OutputData: output,
		PolicyIDs:  req.PolicyIDs,
		Extensions: req.Extensions,
	})
	if err != nil {
		if errors.Is(err, domain.ErrReceiptTooLarge) {
			writeErrorCode(c, http.StatusRequestEntityTooLarge, "RECEIPT_TOO_LARGE", err.Error())
			return
		}
		writeErrorCode(c, http.StatusBadRequest, "CREATE_FAILED", err.Error())
		return
	}

	leafIndex := int64(-1)
	if s.log != nil {
		leafHash, err := s.crypto.ReceiptLeafHash(receipt.Receipt)
		if err == nil {
			if inclusion, err := s.log.Append(c.Request.Context(), leafHash); err == nil {
				leafIndex = inclusion.LeafIndex
				receipt.Extensions.LogInclusion = &inclusion
				// The proof is unsigned and optional; if attaching it pushes
				// the wire form past the size cap the verify endpoint
				// enforces, issue the receipt without it. The leaf stays in
				// the log and the proof remains retrievable there.
				if wire, err := json.Marshal(receipt); err != nil || len(wire) > domain.MaxReceiptSizeBytes {
					receipt.Extensions.LogInclusion = nil
				}
			}
		}
	}

	if s.journal != nil {
		_ = s.journal.Record(c.Request.Context(), *receipt, leafIndex)
	}

	c.JSON(http.StatusCreated, receipt)
}

func (s *Server) handleVerifyReceipt(c *gin.Context) {
	if !s.enforceRateLimit(c, routeReceiptsVerify) {
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, domain.MaxReceiptSizeBytes+1))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body")
		return
	}
	if len(payload) > domain.MaxReceiptSizeBytes {
		writeErrorCode(c, http.StatusRequestEntityTooLarge, "RECEIPT_TOO_LARGE", "receipt exceeds maximum wire size")
		return
	}

	opts := s.verifyDefaults
	if c.Query("require_proof") == "true" {
		opts.RequireProof = true
	}

	result, err := s.verify.ExecuteWire(c.Request.Context(), payload, opts)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_RECEIPT", err.Error())
		return
	}

	response := gin.H{"result": result}
	if s.policy != nil {
		var receipt domain.FullReceipt
		if err := receipt.UnmarshalJSON(payload); err == nil {
			decision, err := s.policy.Evaluate(c.Request.Context(), domain.PolicyInput{
				PolicyIDs: receipt.PolicyIDs,
				Verification: domain.PolicySummary{
					Valid:          result.Valid,
					SignatureValid: result.Details.Signature == domain.StatusOK,
					LogIncluded:    result.Details.TransparencyLog == domain.StatusOK,
				},
			})
			if err == nil {
				response["policy"] = decision
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleGetReceipt(c *gin.Context) {
	if !s.enforceRateLimit(c, routeReceiptsRead) {
		return
	}
	if s.journal == nil {
		writeErrorCode(c, http.StatusNotFound, "JOURNAL_DISABLED", "receipt journal not configured")
		return
	}
	nonce, err := normalizeNonceParam(c.Param("nonce"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", "nonce must be base64")
		return
	}
	receipt, err := s.journal.GetByNonce(c.Request.Context(), nonce)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "no receipt recorded for that nonce")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "JOURNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// normalizeNonceParam accepts the nonce in URL-safe or standard base64 and
// returns the standard encoding the journal records. Standard-encoded nonces
// can contain '/', which does not survive a path segment, so clients are
// expected to send the URL-safe form.
func normalizeNonceParam(param string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(param)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(param)
	}
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (s *Server) handleLogHead(c *gin.Context) {
	if !s.enforceRateLimit(c, routeLogsRead) {
		return
	}
	if s.log == nil {
		writeErrorCode(c, http.StatusNotFound, "LOG_DISABLED", "transparency log not configured")
		return
	}
	head, err := s.log.LatestRoot(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "LOG_EMPTY", "transparency log has no entries")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "LOG_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tree_size": head.TreeSize,
		"root_hash": base64.StdEncoding.EncodeToString(head.RootHash),
		"issued_at": head.IssuedAt.UTC().Format(time.RFC3339),
	})
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
