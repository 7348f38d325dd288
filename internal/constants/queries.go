package constants

const (
	// Active links for revocation-checkable providers, joined with the
	// account row holding the stored credential. Links without a matching
	// account carry a NULL token; the sweep still checks them so they get
	// revoked rather than staying verified forever.
	GetCheckableLinks = `
	SELECT pl.discord_id,
	       pl.provider,
	       pl.provider_id,
	       a.access_token,
	       a.id AS account_id,
	       a.user_id
	FROM provider_links pl
	LEFT JOIN accounts a
	       ON a.provider_account_id = pl.provider_id
	      AND a.provider = pl.provider
	WHERE pl.revoked_at IS NULL
	  AND pl.provider = ANY($1)
	`
)
