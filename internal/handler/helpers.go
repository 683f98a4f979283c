package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"cierrecaja/internal/apierror"
	"cierrecaja/internal/middleware"
	"cierrecaja/internal/model"
	"cierrecaja/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("json_invalido", "JSON invalido: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for the query string.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("parametros_invalidos", "Parametros invalidos: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode("validacion", err.Error()))
		return false
	}
	fields := make(map[string]string)
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// actor builds the workflow caller from the JWT claims.
func actor(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return service.Actor{ID: id, Nombre: claims.Nombre, Rol: service.Rol(claims.Rol)}
}

func parseAlcance(tipo, cajeroID string) (model.Alcance, error) {
	var id *uuid.UUID
	if cajeroID != "" {
		parsed, err := uuid.Parse(cajeroID)
		if err != nil {
			return model.Alcance{}, fmt.Errorf("cajero_id inválido")
		}
		id = &parsed
	}
	return model.NuevoAlcance(tipo, id)
}

// parseFecha accepts RFC 3339 or a bare YYYY-MM-DD read in the store zone.
// With finDia, a bare date means 23:59:59 of that day.
func parseFecha(s string, zona *time.Location, finDia bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, zona)
	if err != nil {
		return nil, fmt.Errorf("fecha inválida %q: use RFC 3339 o YYYY-MM-DD", s)
	}
	if finDia {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("id_invalido", "ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}
