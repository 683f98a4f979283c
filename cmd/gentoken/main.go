// cmd/gentoken issues a signed access token for local testing.
// Uso: go run ./cmd/gentoken -rol supervisor -nombre "Sofía Méndez"
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cierrecaja/internal/config"
	"cierrecaja/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	id := flag.String("id", uuid.NewString(), "UUID del usuario")
	nombre := flag.String("nombre", "Usuario Demo", "Nombre mostrado en los cierres")
	rol := flag.String("rol", "cajero", "cajero | supervisor | administrador")
	ttl := flag.Duration("ttl", 8*time.Hour, "Vigencia del token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET no configurado")
		os.Exit(1)
	}

	tok, err := middleware.SignToken(cfg.JWTSecret, middleware.JWTClaims{
		UserID: *id,
		Nombre: *nombre,
		Rol:    *rol,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*ttl)),
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
