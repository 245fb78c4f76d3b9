// Package common holds the JSON response envelope and id helpers shared by
// the HTTP handlers.
package common

import "github.com/gin-gonic/gin"

// OK writes the standard success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(200, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

// Fail writes the standard error envelope with an app-level code.
func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
