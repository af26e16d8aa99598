package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/validation"
)

type productForm struct {
	Name        string
	Price       string
	Description string
	Category    string
	TagIDs      []uint
}

func bindProductForm(c *gin.Context) productForm {
	f := productForm{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Price:       strings.TrimSpace(c.PostForm("price")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Category:    strings.TrimSpace(c.PostForm("category")),
	}
	for _, raw := range c.PostFormArray("tags") {
		if id := parseUint(raw); id != 0 {
			f.TagIDs = append(f.TagIDs, id)
		}
	}
	return f
}

func (f productForm) input() validation.ProductInput {
	return validation.ProductInput{
		Name:        f.Name,
		Price:       f.Price,
		Description: f.Description,
		Category:    f.Category,
		TagIDs:      f.TagIDs,
	}
}

func productPayload(p *models.Product) gin.H {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"description": p.Description,
		"category":    p.Category,
		"tags":        tags,
	}
}

func (h *Handler) ListProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	var (
		products []models.Product
		err      error
	)
	if query != "" {
		products, err = h.Products.Search(c.Request.Context(), query)
	} else {
		products, err = h.Products.List(c.Request.Context())
	}
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "products.html", gin.H{"Title": "Products", "Products": products, "Query": query})
}

func (h *Handler) renderProductForm(c *gin.Context, title, action string, form productForm, errs validation.Errors) {
	tags, err := h.Tags.List(c.Request.Context())
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "product_form.html", gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
		"Tags":   tags,
		"Errors": errs,
	})
}

func (h *Handler) CreateProductPage(c *gin.Context) {
	h.renderProductForm(c, "Create product", "/create_product/", productForm{}, nil)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	form := bindProductForm(c)
	p, errs, err := validation.ValidateProduct(c.Request.Context(), h.Tags, form.input())
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) > 0 {
		h.renderProductForm(c, "Create product", "/create_product/", form, errs)
		return
	}
	if err := h.Products.Create(c.Request.Context(), p); err != nil {
		h.pageError(c, err)
		return
	}
	h.emit(c, events.ProductCreated, p.ID, productPayload(p))
	h.setFlash(c, fmt.Sprintf("Product %s was created", p.Name))
	h.redirect(c, "/products/")
}

func (h *Handler) UpdateProductPage(c *gin.Context) {
	id, err := pathID(c, "product")
	if err != nil {
		h.pageError(c, err)
		return
	}
	p, err := h.Products.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	form := productForm{
		Name:        p.Name,
		Price:       strconv.FormatFloat(p.Price, 'f', 2, 64),
		Description: p.Description,
		Category:    string(p.Category),
	}
	for _, t := range p.Tags {
		form.TagIDs = append(form.TagIDs, t.ID)
	}
	h.renderProductForm(c, "Update product", fmt.Sprintf("/update_product/%d/", id), form, nil)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := pathID(c, "product")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if _, err := h.Products.Get(ctx, id); err != nil {
		h.pageError(c, err)
		return
	}
	form := bindProductForm(c)
	p, errs, err := validation.ValidateProduct(ctx, h.Tags, form.input())
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) > 0 {
		h.renderProductForm(c, "Update product", fmt.Sprintf("/update_product/%d/", id), form, errs)
		return
	}
	p.ID = id
	if err := h.Products.Update(ctx, p); err != nil {
		h.pageError(c, err)
		return
	}
	h.emit(c, events.ProductUpdated, p.ID, productPayload(p))
	h.redirect(c, "/products/")
}

func (h *Handler) DeleteProductPage(c *gin.Context) {
	id, err := pathID(c, "product")
	if err != nil {
		h.pageError(c, err)
		return
	}
	p, err := h.Products.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "delete.html", gin.H{
		"Title":  "Delete product",
		"Item":   p.Name,
		"Action": fmt.Sprintf("/delete_product/%d/", id),
		"Cancel": "/products/",
	})
}

// DeleteProduct also removes the orders placed for the product.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := pathID(c, "product")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		h.pageError(c, err)
		return
	}
	h.emit(c, events.ProductDeleted, id, nil)
	h.setFlash(c, "Product deleted")
	h.redirect(c, "/products/")
}

func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.Tags.List(c.Request.Context())
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "tags.html", gin.H{"Title": "Tags", "Tags": tags})
}

func (h *Handler) CreateTagPage(c *gin.Context) {
	h.render(c, http.StatusOK, "tag_form.html", gin.H{"Title": "Create tag", "Name": ""})
}

func (h *Handler) CreateTag(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if errs := validation.ValidateTag(name); len(errs) > 0 {
		h.render(c, http.StatusOK, "tag_form.html", gin.H{"Title": "Create tag", "Name": name, "Errors": errs})
		return
	}
	if err := h.Tags.Create(c.Request.Context(), &models.Tag{Name: name}); err != nil {
		h.pageError(c, err)
		return
	}
	h.redirect(c, "/tags/")
}

func (h *Handler) DeleteTagPage(c *gin.Context) {
	id, err := pathID(c, "tag")
	if err != nil {
		h.pageError(c, err)
		return
	}
	t, err := h.Tags.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "delete.html", gin.H{
		"Title":  "Delete tag",
		"Item":   t.Name,
		"Action": fmt.Sprintf("/delete_tag/%d/", id),
		"Cancel": "/tags/",
	})
}

func (h *Handler) DeleteTag(c *gin.Context) {
	id, err := pathID(c, "tag")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if err := h.Tags.Delete(c.Request.Context(), id); err != nil {
		h.pageError(c, err)
		return
	}
	h.redirect(c, "/tags/")
}
