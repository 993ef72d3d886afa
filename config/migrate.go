package config

// Legacy config support. Two incompatible shapes predate the versioned
// schema: the template-matching era ("templates", "monitor_region",
// second-resolution delays) and the first OCR draft ("ocr_targets",
// "skip_text"). Both are folded into the version 2 document here.

// isLegacy reports whether a raw document predates the versioned schema.
func isLegacy(raw map[string]any) bool {
	v, ok := raw["version"]
	if !ok {
		return true
	}
	f, ok := v.(float64)
	return !ok || int(f) < SchemaVersion
}

// migrateLegacy maps a pre-versioned document onto the current schema.
// Unknown keys are dropped and logged so the operator can see what the
// migration discarded.
func migrateLegacy(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw)+1)
	out["version"] = SchemaVersion

	var dropped []string
	for key, val := range raw {
		switch key {
		case "monitor_region":
			if region, ok := legacyRegion(val); ok {
				out["region"] = region
			} else {
				dropped = append(dropped, key)
			}
		case "ocr_targets", "targets":
			out["targets"] = val
		case "scan_interval":
			// Legacy value was seconds as a float.
			if sec, ok := val.(float64); ok {
				out["scan_interval_ms"] = int(sec * 1000)
			}
		case "click_delay":
			if sec, ok := val.(float64); ok {
				out["click_delay_ms"] = int(sec * 1000)
			}
		case "startup_delay":
			if sec, ok := val.(float64); ok {
				out["startup_delay_ms"] = int(sec * 1000)
			}
		case "confidence_threshold":
			// Legacy template-match confidence was 0..1; OCR wants 0..100.
			if f, ok := val.(float64); ok && f > 0 && f <= 1 {
				out["min_confidence"] = f * 100
			}
		case "max_buy_attempts":
			out["max_buy_attempts"] = val
		case "shop_mode":
			out["shop_mode"] = val
		case "detection_mode":
			out["detection_mode"] = val
		case "hotkeys":
			out["hotkeys"] = val
		case "discord":
			if dom, ok := legacyDOM(val, raw["dom_selectors"]); ok {
				out["dom"] = dom
			}
		case "dom_selectors":
			// Folded into "dom" by the discord branch when that block
			// exists; otherwise the selectors migrate on their own.
			if _, withDiscord := raw["discord"]; !withDiscord {
				if dom, ok := legacyDOM(nil, val); ok {
					out["dom"] = dom
				}
			}
		case "templates", "sound_alert", "auto_buy", "use_ocr",
			"skip_text", "dom_targets", "fallback":
			dropped = append(dropped, key)
		default:
			dropped = append(dropped, key)
		}
	}

	if len(dropped) > 0 {
		cfgLog.Warn().Strs("keys", dropped).
			Msg("legacy config keys dropped during migration")
	}
	cfgLog.Info().Msg("migrated legacy config to current schema")
	return out
}

// legacyRegion converts the old [x, y, w, h] array form.
func legacyRegion(val any) (map[string]any, bool) {
	arr, ok := val.([]any)
	if !ok || len(arr) != 4 {
		return nil, false
	}
	nums := make([]int, 4)
	for i, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		nums[i] = int(f)
	}
	return map[string]any{"x": nums[0], "y": nums[1], "w": nums[2], "h": nums[3]}, true
}

// legacyDOM folds the old "discord" block and top-level "dom_selectors"
// into the current dom block. Either argument may be absent.
func legacyDOM(discord, selectors any) (map[string]any, bool) {
	out := map[string]any{}
	if d, ok := discord.(map[string]any); ok {
		if port, ok := d["remote_debugging_port"].(float64); ok {
			out["cdp_port"] = int(port)
		}
		if sel, ok := d["game_frame_selector"].(string); ok {
			out["frame_selector"] = sel
		}
	}
	if sels, ok := selectors.(map[string]any); ok {
		merged := map[string]any{}
		if shop, ok := sels["shop"].(map[string]any); ok {
			for k, v := range shop {
				merged[k] = v
			}
		}
		if buttons, ok := sels["buttons"].(map[string]any); ok {
			if buy, ok := buttons["buy"]; ok {
				merged["buy_button"] = buy
			}
		}
		if len(merged) > 0 {
			out["selectors"] = merged
		}
	}
	return out, len(out) > 0
}
