package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE node_mappings (
				form_version_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(64) NOT NULL,
				sort_order INT NOT NULL DEFAULT 0,
				definition JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (form_version_id, node_id)
			);

			CREATE INDEX idx_node_mappings_form_version ON node_mappings(form_version_id, sort_order);
		`,
	}
}
