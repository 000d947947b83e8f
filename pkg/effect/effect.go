// Package effect defines the tagged-union result every command invocation
// produces: a success flag, optional output/error, and zero or more host
// effects. Grounded on spec.md §4.6 and its §9 DESIGN NOTES naming
// Output/Err/Effect/Effects as the shape a Go port should use in place of
// the original's loosely-typed result object.
package effect

import "encoding/json"

// Kind enumerates every effect the core can emit. The set is exhaustive per
// spec.md §4.6's table; a command that needs a new host action is a scope
// change to this package, not a free-form string.
type Kind string

const (
	KindChangeDirectory       Kind = "change_directory"
	KindClearScreen           Kind = "clear_screen"
	KindBeep                  Kind = "beep"
	KindReboot                Kind = "reboot"
	KindLogin                 Kind = "login"
	KindLogout                Kind = "logout"
	KindSu                    Kind = "su"
	KindPasswd                Kind = "passwd"
	KindUseradd               Kind = "useradd"
	KindRemoveuser            Kind = "removeuser"
	KindSudoExec              Kind = "sudo_exec"
	KindConfirm               Kind = "confirm"
	KindExecuteCommands       Kind = "execute_commands"
	KindExecuteScript         Kind = "execute_script"
	KindBackgroundJob         Kind = "background_job"
	KindSignalJob             Kind = "signal_job"
	KindPostMessage           Kind = "post_message"
	KindReadMessages          Kind = "read_messages"
	KindLaunchApp             Kind = "launch_app"
	KindPageOutput            Kind = "page_output"
	KindDisplayProse          Kind = "display_prose"
	KindExportFile            Kind = "export_file"
	KindBackupData            Kind = "backup_data"
	KindCaptureScreenshotPNG  Kind = "capture_screenshot_png"
	KindDumpScreenText        Kind = "dump_screen_text"
	KindApplyTheme            Kind = "apply_theme"
	KindToggleCinematicMode   Kind = "toggle_cinematic_mode"
	KindPlaySound             Kind = "play_sound"
	KindDelay                 Kind = "delay"
	KindSyncSessionState      Kind = "sync_session_state"
	KindSyncGroupState        Kind = "sync_group_state"
	KindSyncUserAndGroupState Kind = "sync_user_and_group_state"
)

// Effect is one host-directed side effect; Payload carries its kind-specific
// fields, flattened alongside "effect"/"kind" on the wire.
type Effect struct {
	Kind    Kind
	Payload map[string]any
}

func New(kind Kind, payload map[string]any) Effect {
	if payload == nil {
		payload = map[string]any{}
	}
	return Effect{Kind: kind, Payload: payload}
}

func (e Effect) flatten() map[string]any {
	out := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		out[k] = v
	}
	out["kind"] = string(e.Kind)
	return out
}

// CommandError is either a bare message or a {message, suggestion} object,
// per spec.md §4.6's `error?: string | { message, suggestion }`.
type CommandError struct {
	Message    string
	Suggestion string
}

func (e *CommandError) MarshalJSON() ([]byte, error) {
	if e.Suggestion == "" {
		return json.Marshal(e.Message)
	}
	return json.Marshal(struct {
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
	}{e.Message, e.Suggestion})
}

// Result is the single JSON object every command invocation and every
// execute() call returns.
type Result struct {
	Success bool
	Output  string
	Err     *CommandError
	Effects []Effect
}

func Ok(output string) Result {
	return Result{Success: true, Output: output}
}

func Fail(message string) Result {
	return Result{Success: false, Err: &CommandError{Message: message}}
}

func FailWithSuggestion(message, suggestion string) Result {
	return Result{Success: false, Err: &CommandError{Message: message, Suggestion: suggestion}}
}

// WithEffect attaches a single effect to a result, returning the result for
// chaining at the call site.
func (r Result) WithEffect(e Effect) Result {
	r.Effects = append(r.Effects, e)
	return r
}

// MarshalJSON renders a lone effect under "effect" and multiple effects
// under "effects", matching spec.md's "either a single effect: <kind> ...
// or effects: [...]" wording exactly.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": r.Success}
	if r.Output != "" {
		out["output"] = r.Output
	}
	if r.Err != nil {
		out["error"] = r.Err
	}
	switch len(r.Effects) {
	case 0:
	case 1:
		out["effect"] = r.Effects[0].flatten()
	default:
		effects := make([]map[string]any, len(r.Effects))
		for i, e := range r.Effects {
			effects[i] = e.flatten()
		}
		out["effects"] = effects
	}
	return json.Marshal(out)
}
