package middleware

import (
	"fmt"
	"strings"
	"tradeflow/internal/consts"
	"tradeflow/pkg/jwt"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// 请求头的形式为 Authorization: Bearer token
const authorizationHeader = "Authorization"

// AuthToken 鉴权，验证用户token是否有效
func AuthToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := getJwtFromHeader(c)
		if err != nil {
			response.RequireAuthErr(c, err)
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(tokenStr)
		if err != nil {
			response.RequireAuthErr(c, err)
			c.Abort()
			return
		}

		c.Set(consts.UserID, claims.UserId)
		c.Set(consts.JWTClaims, claims)
		c.Next()
	}
}

// AdminOnly 只放行管理员，强平这类危险操作用
// 必须挂在AuthToken后面
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(consts.JWTClaims)
		if !ok {
			response.RequireAuthErr(c, fmt.Errorf("missing auth context"))
			c.Abort()
			return
		}
		claims, ok := v.(*jwt.CustomClaims)
		if !ok || !claims.IsAdministrator() {
			response.RequireAuthErr(c, fmt.Errorf("administrator required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func getJwtFromHeader(c *gin.Context) (string, error) {
	aHeader := c.Request.Header.Get(authorizationHeader)
	if len(aHeader) == 0 {
		return "", fmt.Errorf("token is empty")
	}
	strs := strings.SplitN(aHeader, " ", 2)
	if len(strs) != 2 || strs[0] != "Bearer" {
		return "", fmt.Errorf("token 不符合规则")
	}
	return strs[1], nil
}
