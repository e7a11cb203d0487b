package v1

import (
	"errors"
	"net/http"

	"fourwheels-backend/internal/delivery/http/response"
	"fourwheels-backend/internal/domain"
	"fourwheels-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// MalformedBodyMessage is returned when the body is not valid JSON or is
// over the size limit.
const MalformedBodyMessage = "Nieprawidłowe dane formularza."

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// ContactRoutes holds the per-route middleware chains: rate limit and CSRF
// run before the handler and never see a rejected request twice.
type ContactRoutes struct {
	JSON []gin.HandlerFunc
	Form []gin.HandlerFunc
}

// NewContactHandler registers the contact routes (public, no auth required)
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, routes ContactRoutes) {
	handler := &ContactHandler{
		contactUC: contactUC,
	}

	public.POST("/contact", append(routes.JSON, handler.SubmitContact)...)
	public.POST("/contact/form", append(routes.Form, handler.SubmitContactForm)...)
}

// SubmitContact godoc
// @Summary      Submit contact form
// @Description  Validates the submission, checks attachments and relays it to the workshop mailbox.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactRequest  true  "Contact form data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req domain.ContactRequest
	// The CSRF check may already have read the body.
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.Error(malformed(err))
		return
	}

	res, err := h.contactUC.Submit(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, res.MessageID)
}

// SubmitContactForm godoc
// @Summary      Submit contact form (form-encoded)
// @Description  Plain HTML form variant without attachments. Requires the csrftoken cookie and a matching csrf field.
// @Tags         contact
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        name     formData  string  true   "Name"
// @Param        phone    formData  string  true   "Phone"
// @Param        email    formData  string  true   "E-mail"
// @Param        vin      formData  string  true   "VIN"
// @Param        msg      formData  string  true   "Message"
// @Param        csrf     formData  string  true   "CSRF token"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /contact/form [post]
func (h *ContactHandler) SubmitContactForm(c *gin.Context) {
	var req domain.ContactFormRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.Error(malformed(err))
		return
	}

	res, err := h.contactUC.SubmitForm(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, res.MessageID)
}

func malformed(err error) *apperror.AppError {
	appErr := apperror.BadRequest(MalformedBodyMessage)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		appErr.Message = "Formularz jest zbyt duży."
	}
	appErr.Err = err
	return appErr
}
