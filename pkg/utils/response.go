package utils

import (
	"encoding/json"
	"net/http"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// 状态行已经写出，编码失败无法再补救。
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondFailure 以业务失败的形式返回 {success:false, message}。
// 业务失败统一使用 HTTP 200，前端只看 success 字段。
func RespondFailure(w http.ResponseWriter, message string) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// RespondBadRequest 用于请求体无法解析的场景。
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
