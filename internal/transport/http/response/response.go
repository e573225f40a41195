package response

import "github.com/gin-gonic/gin"

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New never leaves data as null.
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error uses the default message for code unless customMsg is set.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

func WriteOK(c *gin.Context, data interface{}) {
	c.JSON(HTTPStatus(CodeOK), OK(data))
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(HTTPStatus(code), Error(code, msg))
}
