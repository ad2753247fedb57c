package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'paused', 'error')),
				config JSONB NOT NULL DEFAULT '{}',
				icon VARCHAR(100),
				icon_color VARCHAR(50),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_run TIMESTAMP WITH TIME ZONE,
				execution_count BIGINT NOT NULL DEFAULT 0,
				version BIGINT NOT NULL DEFAULT 1
			);

			CREATE INDEX idx_workflows_user_id ON workflows(user_id);
			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
		`,
		2: `
			CREATE TABLE connected_apps (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				icon VARCHAR(100),
				status VARCHAR(50) NOT NULL CHECK (status IN ('connected', 'disconnected', 'error')),
				config JSONB,
				access_token TEXT,
				refresh_token TEXT,
				token_expiry TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				version BIGINT NOT NULL DEFAULT 1
			);

			CREATE INDEX idx_connected_apps_user_id ON connected_apps(user_id);
			CREATE INDEX idx_connected_apps_status ON connected_apps(status);
		`,
		3: `
			CREATE TABLE templates (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category VARCHAR(100),
				icon VARCHAR(100),
				config JSONB NOT NULL DEFAULT '{}',
				use_count BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_templates_category ON templates(category);
		`,
	}
}
