package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/robbyt/go-polyscript/platform"
	"github.com/robbyt/go-polyscript/platform/constants"
	"github.com/robbyt/go-polyscript/platform/data"

	"github.com/gantryhq/gantry/internal/config"
)

// ScriptApp executes a Risor script for each request using go-polyscript.
// Scripts receive the request and routing data under the eval data namespace
// and their return value determines the response body.
type ScriptApp struct {
	id        string
	config    *config.ScriptApp
	evaluator platform.Evaluator
	logger    *slog.Logger
}

// NewScriptApp creates a new script app instance using go-polyscript
func NewScriptApp(id string, cfg *config.ScriptApp, logger *slog.Logger) (*ScriptApp, error) {
	if cfg == nil {
		return nil, ErrNilAppConfig
	}

	// Scripts are compiled during config validation; this only retrieves
	// the cached evaluator.
	evaluator, err := cfg.GetCompiledEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to get compiled evaluator: %w", err)
	}

	return &ScriptApp{
		id:        id,
		config:    cfg,
		evaluator: evaluator,
		logger:    logger.With("app_id", id, "app_type", "script"),
	}, nil
}

// String returns the unique identifier of the application
func (s *ScriptApp) String() string {
	return s.id
}

// HandleHTTP executes the script and writes its result as the response
func (s *ScriptApp) HandleHTTP(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	reqData *RequestData,
) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.config.GetTimeout())
	defer cancel()

	scriptData := s.prepareScriptData(r, reqData)

	contextProvider := data.NewContextProvider(constants.EvalData)
	enrichedCtx, err := contextProvider.AddDataToContext(timeoutCtx, scriptData)
	if err != nil {
		s.logger.Error("Failed to add runtime data", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}

	start := time.Now()
	result, err := s.evaluator.Eval(enrichedCtx)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Script execution failed", "error", err, "duration", duration)

		if timeoutCtx.Err() == context.DeadlineExceeded {
			http.Error(w, "Script Execution Timeout", http.StatusGatewayTimeout)
			return err
		}

		http.Error(w, "Script Execution Error", http.StatusInternalServerError)
		return err
	}

	s.logger.Debug("Script executed successfully", "duration", duration)

	if err := writeScriptResult(w, result); err != nil {
		s.logger.Error("Failed to handle script result", "error", err)
		return err
	}

	return nil
}

// prepareScriptData assembles the data map exposed to the script.
func (s *ScriptApp) prepareScriptData(r *http.Request, reqData *RequestData) map[string]any {
	scriptData := map[string]any{
		"request": r,
	}

	if reqData == nil {
		return scriptData
	}

	if len(reqData.StaticData) > 0 {
		maps.Copy(scriptData, reqData.StaticData)
	}
	scriptData["route_id"] = reqData.RouteID
	if len(reqData.PathParams) > 0 {
		scriptData["params"] = reqData.PathParams
	}
	if len(reqData.QueryParams) > 0 {
		scriptData["query_params"] = reqData.QueryParams
	}
	if len(reqData.GuardValues) > 0 {
		scriptData["guard_values"] = reqData.GuardValues
	}
	if reqData.Status != 0 {
		scriptData["status"] = reqData.Status
		scriptData["error"] = reqData.Error
	}

	return scriptData
}

// writeScriptResult maps the script's return value onto the HTTP response
func writeScriptResult(w http.ResponseWriter, result platform.EvaluatorResponse) error {
	value := result.Interface()

	switch v := value.(type) {
	case map[string]any:
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(v)

	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err := w.Write([]byte(v))
		return err

	case []byte:
		w.Header().Set("Content-Type", "application/octet-stream")
		_, err := w.Write(v)
		return err

	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err := fmt.Fprintf(w, "%v", v)
		return err
	}
}
