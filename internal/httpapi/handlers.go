package httpapi

import (
	"net/http"

	"deediq/internal/account"
	"deediq/internal/auth"
	"deediq/internal/chat"
	"deediq/internal/finance"
	"deediq/internal/models"
)

// Markets

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.markets.ListMarkets(r.Context())
	if err != nil {
		fail(w, "fetch markets", err)
		return
	}
	ok(w, map[string]interface{}{"count": len(markets), "markets": markets})
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	detail, err := s.markets.GetMarket(r.Context(), r.PathValue("city"))
	if err != nil {
		fail(w, "fetch market data", err)
		return
	}
	ok(w, map[string]interface{}{"market": detail})
}

func (s *Server) getSubmarkets(w http.ResponseWriter, r *http.Request) {
	city := r.PathValue("city")
	submarkets, err := s.markets.GetSubmarkets(r.Context(), city)
	if err != nil {
		fail(w, "fetch submarkets", err)
		return
	}
	ok(w, map[string]interface{}{"city": city, "count": len(submarkets), "submarkets": submarkets})
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	var in finance.Inputs
	if !decode(w, r, &in) {
		return
	}
	returns, err := finance.InvestmentReturns(in)
	if err != nil {
		fail(w, "calculate returns", err)
		return
	}
	ok(w, map[string]interface{}{"results": returns})
}

// Auth and profile

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) issue(w http.ResponseWriter, user *models.User) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		fail(w, "issue token", err)
		return
	}
	ok(w, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	user, err := s.accounts.CreateUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		fail(w, "create account", err)
		return
	}
	s.issue(w, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	user, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, "login", err)
		return
	}
	s.issue(w, user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	caller, authed := requireCaller(w, r)
	if !authed {
		return
	}
	user, err := s.accounts.GetUser(r.Context(), caller.UserID)
	if err != nil {
		fail(w, "get user", err)
		return
	}
	ok(w, map[string]interface{}{"user": user})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req account.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}
	if err := s.accounts.UpdateProfile(r.Context(), auth.CallerFromContext(r.Context()), req); err != nil {
		fail(w, "update profile", err)
		return
	}
	ok(w, nil)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	err := s.accounts.ChangePassword(r.Context(), auth.CallerFromContext(r.Context()), req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(w, "change password", err)
		return
	}
	ok(w, nil)
}

func (s *Server) publicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.accounts.PublicProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, "get user profile", err)
		return
	}
	ok(w, map[string]interface{}{"user": profile})
}

// Forum

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.forum.ListCategories(r.Context())
	if err != nil {
		fail(w, "get categories", err)
		return
	}
	ok(w, map[string]interface{}{"categories": categories})
}

func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.forum.ListThreads(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, "get threads", err)
		return
	}
	ok(w, map[string]interface{}{"threads": threads})
}

func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	detail, err := s.forum.GetThread(r.Context(), r.PathValue("id"), auth.CallerFromContext(r.Context()))
	if err != nil {
		fail(w, "get thread", err)
		return
	}
	ok(w, map[string]interface{}{"thread": detail.Thread, "posts": detail.Posts})
}

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID string `json:"categoryId"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := s.forum.CreateThread(r.Context(), auth.CallerFromContext(r.Context()), req.CategoryID, req.Title, req.Content)
	if err != nil {
		fail(w, "create thread", err)
		return
	}
	ok(w, map[string]interface{}{"threadId": id})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThreadID string `json:"threadId"`
		Content  string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := s.forum.CreatePost(r.Context(), auth.CallerFromContext(r.Context()), req.ThreadID, req.Content)
	if err != nil {
		fail(w, "create post", err)
		return
	}
	ok(w, map[string]interface{}{"postId": id})
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.forum.EditPost(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id"), req.Content); err != nil {
		fail(w, "edit post", err)
		return
	}
	ok(w, nil)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.forum.DeletePost(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id")); err != nil {
		fail(w, "delete post", err)
		return
	}
	ok(w, nil)
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	likes, err := s.forum.LikePost(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, "like post", err)
		return
	}
	ok(w, map[string]interface{}{"likes": likes})
}

func (s *Server) unlikePost(w http.ResponseWriter, r *http.Request) {
	likes, err := s.forum.UnlikePost(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, "unlike post", err)
		return
	}
	ok(w, map[string]interface{}{"likes": likes})
}

func (s *Server) userThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.forum.UserThreads(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, "get user threads", err)
		return
	}
	ok(w, map[string]interface{}{"threads": threads})
}

func (s *Server) userPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.forum.UserPosts(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, "get user posts", err)
		return
	}
	ok(w, map[string]interface{}{"posts": posts})
}

func (s *Server) userLikedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.forum.UserLikedPosts(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, "get liked posts", err)
		return
	}
	ok(w, map[string]interface{}{"posts": posts})
}

// Saved properties

func (s *Server) saveProperty(w http.ResponseWriter, r *http.Request) {
	var snapshot models.SavedProperty
	if !decode(w, r, &snapshot) {
		return
	}
	id, err := s.accounts.SaveProperty(r.Context(), auth.CallerFromContext(r.Context()), snapshot)
	if err != nil {
		fail(w, "save property", err)
		return
	}
	ok(w, map[string]interface{}{"propertyId": id})
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := s.accounts.ListProperties(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		fail(w, "get properties", err)
		return
	}
	ok(w, map[string]interface{}{"properties": properties})
}

func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.DeleteProperty(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id")); err != nil {
		fail(w, "delete property", err)
		return
	}
	ok(w, nil)
}

// Chat

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string        `json:"message"`
		Context *chat.Context `json:"context"`
	}
	if !decode(w, r, &req) {
		return
	}
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "AI service is not configured. Please contact the administrator.")
		return
	}
	answer, err := s.assistant.Ask(r.Context(), req.Message, req.Context)
	if err != nil {
		fail(w, "process chat message", err)
		return
	}
	ok(w, map[string]interface{}{"response": answer})
}
