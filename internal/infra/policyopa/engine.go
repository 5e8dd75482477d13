package policyopa

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"tecpd/internal/domain"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.tecp.policy.result"

// Engine is the policy registry collaborator. The verification pipeline
// carries policy_ids opaquely; interpreting them against the accepted-policy
// bundle happens here, and denials reuse the shared E-POLICY-* codes.
type Engine struct {
	query      rego.PreparedEvalQuery
	bundleHash string
	bundleID   string
}

func NewEngineFromBundlePath(ctx context.Context, bundlePath string, bundleID string) (*Engine, error) {
	bundleHash, err := ComputeBundleHashFromPath(bundlePath)
	if err != nil {
		return nil, err
	}

	r := rego.New(
		rego.Query(defaultQuery),
		rego.StrictBuiltinErrors(true),
		rego.Load([]string{bundlePath}, nil),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	return &Engine{
		query:      prepared,
		bundleHash: bundleHash,
		bundleID:   bundleID,
	}, nil
}

func (e *Engine) BundleHash() string {
	return e.bundleHash
}

func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyDecision, error) {
	if e == nil {
		return domain.PolicyDecision{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.PolicyDecision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.PolicyDecision{}, errors.New("empty policy result")
	}
	raw := results[0].Expressions[0].Value
	result, err := decodePolicyResult(raw)
	if err != nil {
		return domain.PolicyDecision{}, err
	}

	denials := make([]domain.VerificationError, 0, len(result.Deny))
	for _, deny := range result.Deny {
		code := deny.Code
		if code == "" {
			code = "E-POLICY-002"
		}
		message := deny.Message
		if message == "" {
			message = domain.ErrorMessage(code)
		}
		denials = append(denials, domain.VerificationError{
			Code:    code,
			Message: message,
			Field:   deny.PolicyID,
		})
	}
	sort.Slice(denials, func(i, j int) bool {
		if denials[i].Code == denials[j].Code {
			return denials[i].Field < denials[j].Field
		}
		return denials[i].Code < denials[j].Code
	})

	return domain.PolicyDecision{
		Allowed:    result.Allow && len(denials) == 0,
		Denials:    denials,
		BundleID:   e.bundleID,
		BundleHash: e.bundleHash,
	}, nil
}

type policyResult struct {
	Allow bool         `json:"allow"`
	Deny  []policyDeny `json:"deny"`
}

type policyDeny struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	PolicyID string `json:"policy_id"`
}

func decodePolicyResult(value any) (policyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return policyResult{}, err
	}
	var result policyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return policyResult{}, err
	}
	return result, nil
}

var _ domain.PolicyRegistry = (*Engine)(nil)
