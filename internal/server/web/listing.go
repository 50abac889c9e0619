package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/services"
)

// ImagesField is the multipart field holding listing attachments.
const ImagesField = "images"

func (s *Server) submitListing(c *gin.Context) {
	ident := identityOf(c)
	// skip reading the upload for callers that cannot post
	switch ident.(type) {
	case identity.Anonymous:
		seeOther(c, pageLogin)
		return
	case identity.Pending:
		seeOther(c, pageConfirmation)
		return
	}

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File[ImagesField]
	case errors.Is(err, http.ErrNotMultipart):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusBadRequest)
		return
	}

	in := services.SubmitInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
		Campus:      c.PostForm("campus"),
	}
	for _, fh := range files {
		in.Files = append(in.Files, services.FileUpload{Filename: fh.Filename, Open: openPart(fh)})
	}

	res, err := s.deps.Listings.Submit(c.Request.Context(), ident, in)
	if err != nil {
		if !redirectUnauthorized(c, err) {
			seeOtherWithError(c, pageNewListing, err)
		}
		return
	}
	if res.Stored() < len(in.Files) {
		s.log.Warn(c.Request.Context(), "listing created with missing attachments",
			"listing_id", res.Listing.ID, "stored", res.Stored(), "files", len(in.Files))
	}
	seeOther(c, pageHome)
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

type feedItem struct {
	ID              string   `json:"id"`
	Title           string   `json:"titulo"`
	Description     string   `json:"descricao"`
	Type            string   `json:"tipo"`
	TypeName        string   `json:"tipo_nome"`
	Campus          string   `json:"campus"`
	CampusName      string   `json:"campus_nome"`
	CreatedAt       string   `json:"criado_em"`
	CreatorNickname string   `json:"criador"`
	CreatorAvatar   string   `json:"criador_avatar"`
	Attachments     []string `json:"anexos"`
}

// feed serves the public listing feed. Paging parameters that do not parse
// fall back to their defaults.
func (s *Server) feed(c *gin.Context) {
	offset, _ := strconv.Atoi(c.Query("deslocamento"))
	limit, _ := strconv.Atoi(c.Query("quantidade"))

	items, err := s.deps.Listings.Recent(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{ErrorParam: ErrorCode(err)})
		return
	}

	out := make([]feedItem, 0, len(items))
	for _, it := range items {
		attachments := make([]string, 0, len(it.AttachmentIDs))
		for _, id := range it.AttachmentIDs {
			attachments = append(attachments, "/anexos/"+id)
		}
		out = append(out, feedItem{
			ID:              it.ID,
			Title:           it.Title,
			Description:     it.Description,
			Type:            string(it.Type),
			TypeName:        it.Type.DisplayName(),
			Campus:          string(it.Campus),
			CampusName:      it.Campus.DisplayName(),
			CreatedAt:       it.CreatedAt,
			CreatorNickname: it.CreatorNickname,
			CreatorAvatar:   it.CreatorAvatar,
			Attachments:     attachments,
		})
	}
	c.JSON(http.StatusOK, out)
}
